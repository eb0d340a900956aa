// Package console implements the interactive terminal front end of the plate
// calculator: it validates typed weights, prints the plate breakdown and asks
// whether to continue.
package console
