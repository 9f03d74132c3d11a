// Package workspace manages scratch directories for builds.
//
// Ephemeral managers create a timestamped directory (blogbuilder-20260115-093000)
// per build and remove it on Cleanup. Persistent managers reuse a fixed path,
// which the git deployer uses to keep its clone of the pages branch between
// publishes.
package workspace
