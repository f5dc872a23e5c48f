// Command assetctl inspects stored image objects and manages the asset schema.
package main

import "os"

func main() {
	if err := newRootCmd(defaultApp()).Execute(); err != nil {
		os.Exit(1)
	}
}
