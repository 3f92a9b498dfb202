// Package web embeds the built dashboard assets for single-binary distribution.
package web

import "embed"

// Assets contains the dashboard production build output under build/.
//
//go:embed all:build
var Assets embed.FS
