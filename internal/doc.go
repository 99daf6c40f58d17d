// Package internal contains the dispatch core implementation.
// The public API is re-exported from the root relay package;
// import that instead.
package internal
