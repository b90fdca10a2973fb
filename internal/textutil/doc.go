// Package textutil normalizes and compares show and person names.
//
// Fold removes accents and case so "Beyoncé" and "beyonce" compare equal.
// Fingerprints are token frequency vectors over folded text; the cosine
// similarity of two fingerprints scores how closely a search hit matches the
// name it was searched for.
package textutil
