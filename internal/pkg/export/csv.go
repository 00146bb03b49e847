package export

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/internal/pkg/aggregate"
)

const csvHeader = "Type,Date,Description,Category/Source/Type,Amount\n"

// WriteCSV writes expenses, then income, then investments. The description is
// always quoted; the other columns never are.
func WriteCSV(w io.Writer, data Data) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(csvHeader); err != nil {
		return err
	}
	for _, e := range data.Expenses {
		writeCSVLine(bw, models.KindExpense, e)
	}
	for _, i := range data.Income {
		writeCSVLine(bw, models.KindIncome, i)
	}
	for _, v := range data.Investments {
		writeCSVLine(bw, models.KindInvestment, v)
	}
	return bw.Flush()
}

// CSV renders the export into memory.
func CSV(data Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCSVLine(w *bufio.Writer, kind string, r aggregate.Record) {
	w.WriteString(kind)
	w.WriteByte(',')
	w.WriteString(r.GetDate().Format("2006-01-02"))
	w.WriteString(`,"`)
	w.WriteString(strings.ReplaceAll(r.GetDescription(), `"`, `""`))
	w.WriteString(`",`)
	w.WriteString(r.GetGroup())
	w.WriteByte(',')
	w.WriteString(r.GetAmount().String())
	w.WriteByte('\n')
}
