package notify

import (
	"fmt"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/klinebt/internal/domain"
)

// PrintRuns imprime el histórico de runs, en el orden recibido.
func (c *Console) PrintRuns(runs []domain.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "no runs stored")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Run", "Started", "Mode", "W", "Instruments", "Trades", "Avg Return", "Success", "Duration")
	for _, r := range runs {
		table.Append(
			r.ID,
			r.StartedAt.Format("2006-01-02T15:04:05"),
			r.Mode,
			fmt.Sprintf("%d", r.Workers),
			fmt.Sprintf("%d", r.Instruments),
			fmt.Sprintf("%d", r.Trades),
			fmt.Sprintf("%+.4f%%", r.AvgReturn*100),
			fmt.Sprintf("%.4f", r.AvgSuccessRatio),
			r.Duration().Round(time.Millisecond).String(),
		)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("notify.PrintRuns: render table: %w", err)
	}
	return nil
}

// PrintRunDetail imprime la cabecera de un run guardado y sus top
// instrumentos por value.
func (c *Console) PrintRunDetail(run domain.Run, values map[string]float64, trades int) error {
	fmt.Fprintf(c.out, "run %s  strategy:%s mode:%s workers:%d source:%s\n",
		run.ID, run.Strategy, run.Mode, run.Workers, run.Source)
	fmt.Fprintf(c.out, "  instruments:%d trades:%d success_ratio:%.4f avg_return:%+.4f%%\n",
		run.Instruments, trades, run.AvgSuccessRatio, run.AvgReturn*100)

	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if values[keys[i]] != values[keys[j]] {
			return values[keys[i]] > values[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > c.top {
		keys = keys[:c.top]
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Instrument", "Value", "Return")
	for i, k := range keys {
		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(k, 32),
			fmt.Sprintf("%.6f", values[k]),
			fmt.Sprintf("%+.3f%%", (values[k]-1)*100),
		)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("notify.PrintRunDetail: render table: %w", err)
	}
	return nil
}
