package model

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Exclusion returns the no-good constraint "n1 + n2 + ... <= |S| - 1" for the set S of variables
// found to be 1. It forbids selecting all of S together again but keeps every proper subset reachable.
func Exclusion(ones []string) (string, error) {
	if len(ones) == 0 {
		return "", errors.New("cannot exclude an empty set of variables")
	}
	return fmt.Sprintf("%v <= %d", strings.Join(ones, " + "), len(ones)-1), nil
}
