package episode

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	domain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/episode"
)

// timeColumn is the optional CSV column the reader uses to infer the sample
// time; it is not stored as a channel.
const timeColumn = "time"

// ReadCSV parses an episode from CSV with a header row of channel names.
// When a time column is present the sample time is inferred from its first
// two rows and the column is dropped; otherwise fallbackSampleTime applies.
func ReadCSV(r io.Reader, name string, fallbackSampleTime float64) (*domain.Episode, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	timeIdx := -1
	for i, col := range header {
		if col == timeColumn {
			timeIdx = i
		}
	}

	e := domain.New(name, fallbackSampleTime)
	for _, col := range header {
		if col != timeColumn {
			e.Channels[col] = nil
		}
	}

	var times []float64
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++
		if len(record) != len(header) {
			return nil, fmt.Errorf("%w: line %d has %d fields, want %d", domain.ErrMalformedEpisode, line, len(record), len(header))
		}
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d field %q: %v", domain.ErrMalformedEpisode, line, header[i], err)
			}
			if i == timeIdx {
				times = append(times, v)
				continue
			}
			e.Channels[header[i]] = append(e.Channels[header[i]], v)
		}
	}

	if timeIdx >= 0 && len(times) >= 2 {
		e.SampleTime = times[1] - times[0]
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// WriteCSV writes an episode as CSV with a leading time column.
func WriteCSV(w io.Writer, e *domain.Episode) error {
	if err := e.Validate(); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	names := e.ChannelNames()
	header := append([]string{timeColumn}, names...)
	if err := writer.Write(header); err != nil {
		return err
	}

	n := e.Len()
	record := make([]string, len(header))
	for k := 0; k < n; k++ {
		record[0] = strconv.FormatFloat(float64(k)*e.SampleTime, 'g', -1, 64)
		for i, name := range names {
			record[i+1] = strconv.FormatFloat(e.Channels[name][k], 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
