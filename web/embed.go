// Package web embeds the console templates and static assets.
package web

import "embed"

// TemplatesFS embeds HTML templates for server-side rendering.
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet and console script.
//go:embed static/*
var StaticFS embed.FS
