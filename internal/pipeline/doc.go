// Package pipeline runs a whole blog build: load the site configuration,
// discover and select posts, render through the staged generator, and
// record the outcome. Publisher adds the deploy step on top.
//
// A build either promotes a complete new output or leaves the previous one
// in place; deploys only ever run after a successful build.
package pipeline
