// Package testsupport holds helpers shared by package tests: isolated
// configs, stub executables on PATH, sized scratch files, and a history
// store that closes itself.
package testsupport
