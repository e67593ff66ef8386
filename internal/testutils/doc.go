// Package testutils holds observers shared by the package tests.
package testutils
