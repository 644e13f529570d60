package simulation

import (
	"fmt"

	"github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/epidemic"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The arena actor speaks with well-known protobuf types:
//
//	*wrapperspb.UInt32Value  advance that many epochs, answered with a report
//	*wrapperspb.UInt64Value  advance that many epochs, no answer
//	*emptypb.Empty           report request
//	*structpb.Struct         epoch report (reply)

// Advance builds the message asking the arena to move n epochs.
func Advance(n uint32) *wrapperspb.UInt32Value {
	return wrapperspb.UInt32(n)
}

// Tick builds the fire-and-forget variant of Advance, used with actor.Tell.
func Tick(n uint32) *wrapperspb.UInt64Value {
	return wrapperspb.UInt64(uint64(n))
}

// ReportRequest builds the message asking for the current epoch report.
func ReportRequest() *emptypb.Empty {
	return &emptypb.Empty{}
}

// EpochReport is the state of the arena after the last processed message.
type EpochReport struct {
	Epoch      int
	Counts     epidemic.Counts
	Collisions int
	// Done is set once the configured epoch budget is spent.
	Done bool
}

// ToProto converts the report into its wire form.
func (r EpochReport) ToProto() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"epoch":      structpb.NewNumberValue(float64(r.Epoch)),
		"healthy":    structpb.NewNumberValue(float64(r.Counts.Healthy)),
		"infected":   structpb.NewNumberValue(float64(r.Counts.Infected)),
		"recovered":  structpb.NewNumberValue(float64(r.Counts.Recovered)),
		"collisions": structpb.NewNumberValue(float64(r.Collisions)),
		"done":       structpb.NewBoolValue(r.Done),
	}}
}

// ReportFromProto decodes a report produced by ToProto.
func ReportFromProto(s *structpb.Struct) (EpochReport, error) {
	if s == nil {
		return EpochReport{}, fmt.Errorf("empty epoch report")
	}
	num := func(key string) (int, error) {
		v, ok := s.GetFields()[key]
		if !ok {
			return 0, fmt.Errorf("epoch report is missing %q", key)
		}
		return int(v.GetNumberValue()), nil
	}

	var (
		r   EpochReport
		err error
	)
	if r.Epoch, err = num("epoch"); err != nil {
		return r, err
	}
	if r.Counts.Healthy, err = num("healthy"); err != nil {
		return r, err
	}
	if r.Counts.Infected, err = num("infected"); err != nil {
		return r, err
	}
	if r.Counts.Recovered, err = num("recovered"); err != nil {
		return r, err
	}
	if r.Collisions, err = num("collisions"); err != nil {
		return r, err
	}
	r.Done = s.GetFields()["done"].GetBoolValue()
	return r, nil
}
