// Command hexablock meshes block-structured hexahedral documents described
// by block scripts.
package main

import (
	"github.com/unixpickle/essentials"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		essentials.Die(err)
	}
}
