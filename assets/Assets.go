// Package assets embeds the URDF models of robots, objects, and
// equipment that environments load into the physics engine.
package assets

import "embed"

// FS holds the asset tree rooted at the urdf directory
//
//go:embed urdf
var FS embed.FS
