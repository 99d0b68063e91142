package appfs

import "embed"

// FS holds the database migrations and the email templates.
//
//go:embed migrations/*.sql templates/email/*
var FS embed.FS
