// Package vcc holds build metadata shared by the vcc command and its libraries.
package vcc

// Version is the current vcc release.
const Version = "0.1.0"
