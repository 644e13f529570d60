package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/epidemic"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// EpochRecord converts one epoch into a protobuf Struct:
// epoch, the three counts, and per citizen its x, y and status.
func EpochRecord(frame epidemic.Frame, counts epidemic.Counts) *structpb.Struct {
	citizens := make([]*structpb.Value, len(frame.Positions))
	for i, pos := range frame.Positions {
		citizens[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"x":      structpb.NewNumberValue(pos.X),
			"y":      structpb.NewNumberValue(pos.Y),
			"status": structpb.NewStringValue(frame.Statuses[i].String()),
		}})
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"epoch":     structpb.NewNumberValue(float64(frame.Epoch)),
		"healthy":   structpb.NewNumberValue(float64(counts.Healthy)),
		"infected":  structpb.NewNumberValue(float64(counts.Infected)),
		"recovered": structpb.NewNumberValue(float64(counts.Recovered)),
		"citizens":  structpb.NewListValue(&structpb.ListValue{Values: citizens}),
	}}
}

// WriteHistoryJSONL writes one JSON object per epoch.
func WriteHistoryJSONL(w io.Writer, h *epidemic.History) error {
	bw := bufio.NewWriter(w)
	for e := range h.Frames {
		b, err := protojson.Marshal(EpochRecord(h.Frames[e], h.Counts[e]))
		if err != nil {
			return fmt.Errorf("failed to encode epoch %d: %w", e, err)
		}
		if _, err := bw.Write(b); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteCountsCSV writes epoch,healthy,infected,recovered rows with a header.
func WriteCountsCSV(w io.Writer, h *epidemic.History) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"epoch", "healthy", "infected", "recovered"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for e, c := range h.Counts {
		row := []string{
			strconv.Itoa(e),
			strconv.Itoa(c.Healthy),
			strconv.Itoa(c.Infected),
			strconv.Itoa(c.Recovered),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write epoch %d: %w", e, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates path and hands it to write.
func WriteFile(path string, h *epidemic.History, write func(io.Writer, *epidemic.History) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f, h)
}
