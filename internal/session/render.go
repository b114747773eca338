package session

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/rescale/dufs-get/internal/remote"
)

var rule = strings.Repeat("=", 50)

// styles colours the entry markers.
type styles struct {
	dir  *color.Color
	file *color.Color
}

func newStyles(enabled bool) styles {
	st := styles{
		dir:  color.New(color.FgBlue, color.Bold),
		file: color.New(color.FgGreen),
	}
	if enabled {
		st.dir.EnableColor()
		st.file.EnableColor()
	} else {
		st.dir.DisableColor()
		st.file.DisableColor()
	}
	return st
}

func (s *Session) renderHeader() {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, rule)
	if s.current == "" {
		fmt.Fprintln(s.out, "Current path: / (root)")
	} else {
		fmt.Fprintf(s.out, "Current path: /%s\n", s.current)
	}
	fmt.Fprintln(s.out, rule)
}

func (s *Session) renderEntries(entries []remote.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(s.out, "(empty directory)")
		return
	}
	for i, e := range entries {
		marker := s.styles.file.Sprint("[file]")
		if e.IsDir {
			marker = s.styles.dir.Sprint("[dir]")
		}
		fmt.Fprintf(s.out, "  %3d. %s %s\n", i+1, marker, e.Name)
	}
}

func (s *Session) renderHelp() {
	fmt.Fprint(s.out, `
Commands:
  - number (e.g. 1): enter dir or download file
  - d+number (e.g. d1): download selected file or folder
  - .. or cd ..: go to parent directory
  - q or quit: exit

`)
}
