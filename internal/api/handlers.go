package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/netdoctor/netdoctor/internal/models"
	"github.com/netdoctor/netdoctor/internal/utils"
)

// FromStructDiagnosticsRequest maps a Struct payload into a DiagnosticsRequest.
// A nil payload is an empty request.
func FromStructDiagnosticsRequest(in *structpb.Struct) (models.DiagnosticsRequest, error) {
	var req models.DiagnosticsRequest
	if err := decodeStruct("run diagnostics", in, &req); err != nil {
		return models.DiagnosticsRequest{}, err
	}
	return req, nil
}

// FromStructAnalyzeRequest maps a Struct payload into an AnalyzeRequest.
func FromStructAnalyzeRequest(in *structpb.Struct) (models.AnalyzeRequest, error) {
	if in == nil {
		return models.AnalyzeRequest{}, utils.ContractViolation("analyze metrics", "request is nil", nil)
	}
	var req models.AnalyzeRequest
	if err := decodeStruct("analyze metrics", in, &req); err != nil {
		return models.AnalyzeRequest{}, err
	}
	return req, nil
}

// FromStructAskRequest maps a Struct payload into an AskRequest.
func FromStructAskRequest(in *structpb.Struct) (models.AskRequest, error) {
	if in == nil {
		return models.AskRequest{}, utils.ContractViolation("answer query", "request is nil", nil)
	}
	var req models.AskRequest
	if err := decodeStruct("answer query", in, &req); err != nil {
		return models.AskRequest{}, err
	}
	return req, nil
}

// ToStructReport converts a report into its Struct representation.
func ToStructReport(report models.DiagnosticReport) (*structpb.Struct, error) {
	return encodeStruct(report)
}

// ToStructAnomalyReport converts an anomaly analysis into its Struct representation.
func ToStructAnomalyReport(report models.AnomalyReport) (*structpb.Struct, error) {
	return encodeStruct(report)
}

// ToStructAnswer converts a classified answer into its Struct representation.
func ToStructAnswer(answer models.ClassifiedAnswer) (*structpb.Struct, error) {
	return encodeStruct(answer)
}

func decodeStruct(op string, in *structpb.Struct, out any) error {
	if in == nil {
		return nil
	}
	raw, err := in.MarshalJSON()
	if err != nil {
		return utils.ContractViolation(op, "unreadable payload", err)
	}
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(out); err != nil {
		return utils.ContractViolation(op, "malformed payload", err)
	}
	return nil
}

// encodeStruct round-trips v through its JSON form so Struct field names match
// the HTTP API.
func encodeStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	out := new(structpb.Struct)
	if err := out.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("build struct payload: %w", err)
	}
	return out, nil
}
