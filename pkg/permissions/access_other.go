//go:build !unix

package permissions

import "os"

func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".inputtrail-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
