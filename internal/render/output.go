// Package render formats calculator output for the terminal.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"github.com/joss/calc/internal/dispatch"
	"github.com/joss/calc/internal/history"
	"github.com/joss/calc/internal/metrics"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

// TimestampLayout is how history tables show record times.
const TimestampLayout = "2006-01-02 15:04:05"

// Renderer handles output formatting.
type Renderer struct {
	pretty    bool
	precision int
}

// New creates a renderer showing numbers with precision significant
// digits. precision <= 0 shows the shortest exact representation.
func New(pretty bool, precision int) *Renderer {
	return &Renderer{pretty: pretty, precision: precision}
}

// Number formats v, dropping trailing zeros.
func (r *Renderer) Number(v float64) string {
	p := r.precision
	if p <= 0 {
		p = -1
	}
	return strconv.FormatFloat(v, 'g', p, 64)
}

// Result formats a dispatch result. KindNone and KindExit render as "".
func (r *Renderer) Result(res dispatch.Result) string {
	switch res.Kind {
	case dispatch.KindValue:
		return r.Value(res.Value)
	case dispatch.KindHistory:
		return r.History(res.Records)
	case dispatch.KindHistoryDetail:
		return r.HistoryDetail(res.Records)
	case dispatch.KindOps:
		return r.Ops(res.Ops)
	case dispatch.KindHelp:
		return r.Help(res.Commands, res.Ops)
	case dispatch.KindStats:
		return r.Stats(res.Stats, res.History)
	case dispatch.KindMessage:
		return r.Message(res.Message)
	default:
		return ""
	}
}

// Value formats a calculation result.
func (r *Renderer) Value(v float64) string {
	if r.pretty {
		return color.GreenString("= %s", r.Number(v))
	}
	return r.Number(v)
}

// Message formats an informational line.
func (r *Renderer) Message(msg string) string {
	if r.pretty {
		return color.CyanString(msg)
	}
	return msg
}

// Error formats a failed command.
func (r *Renderer) Error(err error) string {
	if r.pretty {
		return color.RedString("✗ Error: %v", err)
	}
	return fmt.Sprintf("Error: %v", err)
}

// Equation formats a record using the renderer's precision.
func (r *Renderer) Equation(rec history.Record) string {
	return rec.Equation(r.Number)
}

// History formats records as a numbered list, oldest first.
func (r *Renderer) History(records []history.Record) string {
	if len(records) == 0 {
		return "No calculations in history"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Calculation History\n"))
		sb.WriteString(strings.Repeat("─", 40) + "\n")
	}

	for i, rec := range records {
		if r.pretty {
			fmt.Fprintf(&sb, "%3d. %s %s\n", i+1,
				color.HiBlackString(rec.Timestamp.Format("15:04:05")),
				r.Equation(rec))
		} else {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, r.Equation(rec))
		}
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// HistoryDetail formats records as a table with their timestamps and raw
// operands, oldest first.
func (r *Renderer) HistoryDetail(records []history.Record) string {
	if len(records) == 0 {
		return "No calculations in history"
	}

	header := []string{"#", "Timestamp", "Operation", "A", "B", "Result"}
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			rec.Timestamp.Format(TimestampLayout),
			rec.Operation,
			r.Number(rec.Left),
			r.Number(rec.Right),
			r.Number(rec.Result),
		}
	}

	if r.pretty {
		return table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(infoStyle).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return titleStyle.Padding(0, 1)
				}
				return cellStyle
			}).
			Headers(header...).
			Rows(rows...).
			Render()
	}

	all := append([][]string{header}, rows...)
	widths := make([]int, len(header))
	for _, row := range all {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	lines := make([]string, len(all))
	for n, row := range all {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
		}
		lines[n] = strings.TrimRight(strings.Join(cells, "  "), " ")
	}
	return strings.Join(lines, "\n")
}

// Ops formats the available operations.
func (r *Renderer) Ops(ops []dispatch.OpInfo) string {
	if len(ops) == 0 {
		return "No operations available"
	}

	width := 0
	for _, op := range ops {
		width = max(width, len(op.Name))
	}

	var lines []string
	for _, op := range ops {
		lines = append(lines, r.entry(op.Name, op.Description, width))
	}

	if !r.pretty {
		return "Operations:\n" + strings.Join(lines, "\n")
	}
	return boxStyle.Render(titleStyle.Render("Operations") + "\n" + strings.Join(lines, "\n"))
}

// Help formats the meta-commands and the operations.
func (r *Renderer) Help(cmds []dispatch.Command, ops []dispatch.OpInfo) string {
	width := len("<op> <a> <b>")
	for _, c := range cmds {
		width = max(width, len(c.Usage))
	}

	lines := []string{r.entry("<op> <a> <b>", "Apply an operation, e.g. 'add 2 3' (or '2 3 add')", width)}
	for _, c := range cmds {
		lines = append(lines, r.entry(c.Usage, c.Description, width))
	}

	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Name
	}
	opsLine := "Operations: " + strings.Join(names, ", ")

	if !r.pretty {
		return "Commands:\n" + strings.Join(lines, "\n") + "\n" + opsLine
	}
	body := titleStyle.Render("Commands") + "\n" + strings.Join(lines, "\n") + "\n\n" + infoStyle.Render(opsLine)
	return boxStyle.Render(body)
}

func (r *Renderer) entry(name, desc string, width int) string {
	padded := name + strings.Repeat(" ", width-len(name))
	if r.pretty {
		return "  " + nameStyle.Render(padded) + "  " + infoStyle.Render(desc)
	}
	return strings.TrimRight("  "+padded+"  "+desc, " ")
}

// Stats formats session counters and ledger occupancy.
func (r *Renderer) Stats(s metrics.Snapshot, h dispatch.HistoryInfo) string {
	bound := "unbounded"
	if h.MaxSize > 0 {
		bound = "max " + strconv.Itoa(h.MaxSize)
	}
	rows := [][2]string{
		{"Uptime", FormatDuration(s.Uptime)},
		{"History", fmt.Sprintf("%d of %s (%d undone)", h.Visible, bound, h.Stored-h.Visible)},
		{"Commands", strconv.FormatInt(s.Commands, 10)},
		{"Calculations", strconv.FormatInt(s.Calculations, 10)},
		{"Domain errors", strconv.FormatInt(s.DomainErrors, 10)},
		{"Invalid input", strconv.FormatInt(s.InvalidInputs, 10)},
		{"Unknown commands", strconv.FormatInt(s.UnknownCommands, 10)},
		{"Undo / redo", fmt.Sprintf("%d / %d", s.Undos, s.Redos)},
		{"Evicted", strconv.FormatInt(s.Evictions, 10)},
		{"Saves", fmt.Sprintf("%d (%d failed)", s.Saves, s.SaveErrors)},
		{"Loads", fmt.Sprintf("%d (%d failed)", s.Loads, s.LoadErrors)},
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Session Statistics\n"))
		sb.WriteString(strings.Repeat("─", 40) + "\n")
	}
	for _, row := range rows {
		fmt.Fprintf(&sb, "  %-17s %s\n", row[0]+":", row[1])
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
