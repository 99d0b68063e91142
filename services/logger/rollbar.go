package logsvc

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/shule/core"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

// New returns a logger writing to stdout with the component's prefix (eg: "API : ").
// Rollbar reporting is only enabled outside of DEV/TEST, when a token is configured.
func New(component string, conf *core.Config, out ...io.Writer) *RollbarLogger {
	var w io.Writer = os.Stdout
	if len(out) > 0 {
		w = out[0]
	}
	l := NewRollbarLogger(log.New(w, component+" : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	l.Enable(conf.RollbarToken != "" && !(conf.Debug || conf.TestMode))
	return l
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, core.Identity
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var idSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		if id, ok := arg.(core.Identity); ok {
			if !idSet { // only set one person
				rollbar.SetPerson(id.ID, id.Username, id.Email)
				idSet = true
			}
		} else {
			newArgs = append(newArgs, arg)
		}
	}
	if !idSet {
		rollbar.ClearPerson()
	}
	return newArgs
}

func (l RollbarLogger) print(level, msg string, args []interface{}) {
	_ = l.std.Output(3, level+" "+msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case map[string]interface{}:
			_ = l.std.Output(3, "\t"+formatExtras(a))
		case core.Identity:
			_ = l.std.Output(3, fmt.Sprintf("\tidentity: id=%s username=%s", a.ID, a.Username))
		default:
			_ = l.std.Output(3, fmt.Sprintf("\t%+v", arg))
		}
	}
}

// formatExtras formats extra data as sorted `key=value` pairs.
func formatExtras(extras map[string]interface{}) string {
	keys := make([]string, 0, len(extras))
	for k := range extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%v", k, extras[k])
	}
	return strings.Join(pairs, " ")
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.print("DEBUG", msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.print("INFO", msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.print("WARN", msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.print("ERROR", msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	l.print("FATAL", msg, args)
	os.Exit(1)
}
