package build

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"
)

// Slot names recognised in command templates.
const (
	SlotSourceFile  = "source_file"
	SlotOutputDir   = "output_dir"
	SlotTempDir     = "temp_dir"
	SlotProgramName = "program_name"
)

var knownSlots = map[string]bool{
	SlotSourceFile:  true,
	SlotOutputDir:   true,
	SlotTempDir:     true,
	SlotProgramName: true,
}

var slotPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Template is a parsed packager command.
type Template struct {
	raw  string
	argv []string
}

// Slots holds the values substituted into a Template.
type Slots struct {
	SourceFile  string
	OutputDir   string
	TempDir     string
	ProgramName string
}

// ParseTemplate splits raw into arguments and checks its slots.
// The template must reference {source_file} and {program_name}; unknown
// slots are rejected.
func ParseTemplate(raw string) (*Template, error) {
	argv, err := shellwords.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse build command %q: %w", raw, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("parse build command: template is empty")
	}

	seen := map[string]bool{}
	for _, arg := range argv {
		for _, m := range slotPattern.FindAllStringSubmatch(arg, -1) {
			if !knownSlots[m[1]] {
				return nil, fmt.Errorf("parse build command: unknown slot {%s}", m[1])
			}
			seen[m[1]] = true
		}
	}
	if slotPattern.MatchString(argv[0]) {
		return nil, fmt.Errorf("parse build command: the executable cannot be a slot")
	}
	for _, required := range []string{SlotSourceFile, SlotProgramName} {
		if !seen[required] {
			return nil, fmt.Errorf("parse build command: missing slot {%s}", required)
		}
	}
	return &Template{raw: raw, argv: argv}, nil
}

// MustParseTemplate is ParseTemplate that panics on error.
func MustParseTemplate(raw string) *Template {
	t, err := ParseTemplate(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the template as written.
func (t *Template) String() string {
	return t.raw
}

// Expand substitutes the slots and returns the argument vector.
func (t *Template) Expand(s Slots) []string {
	r := strings.NewReplacer(
		"{"+SlotSourceFile+"}", s.SourceFile,
		"{"+SlotOutputDir+"}", s.OutputDir,
		"{"+SlotTempDir+"}", s.TempDir,
		"{"+SlotProgramName+"}", s.ProgramName,
	)
	out := make([]string, len(t.argv))
	for i, arg := range t.argv {
		out[i] = r.Replace(arg)
	}
	return out
}

// Render formats argv for logs. Arguments that are empty or contain
// whitespace, quotes or backslashes are double-quoted.
func Render(argv []string) string {
	parts := make([]string, len(argv))
	for i, arg := range argv {
		if arg == "" || strings.ContainsAny(arg, " \t\n\"'\\$") {
			parts[i] = strconv.Quote(arg)
		} else {
			parts[i] = arg
		}
	}
	return strings.Join(parts, " ")
}
