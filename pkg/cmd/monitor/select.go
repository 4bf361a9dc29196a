package monitor

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mpapenbr/iracelog-sector-monitor/pkg/trackdef"
)

// chooseFile lists the definition files of dir on out and reads the choice
// (number or file name) from in.
func chooseFile(dir *trackdef.Dir, in io.Reader, out io.Writer) (string, error) {
	files, err := dir.List()
	if err != nil {
		return "", err
	}
	fmt.Fprintln(out, "Available track files:")
	for i, f := range files {
		fmt.Fprintf(out, "%d. %s\n", i+1, f)
	}
	fmt.Fprint(out, "Select the track file to use (number): ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("%w: no input", trackdef.ErrInvalidChoice)
	}
	return dir.Resolve(strings.TrimSpace(line))
}
