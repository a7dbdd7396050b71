// Package features lists the automation routines shipped with tickpilot.
//
// Each routine lives in its own subpackage and embeds *feature.Base. All
// registers every routine with a feature.Registry.
package features
