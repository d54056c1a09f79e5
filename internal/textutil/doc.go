// Package textutil provides small text helpers shared by the classifier and
// the CLI: word tokenization and display truncation.
package textutil
