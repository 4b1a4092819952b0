package service

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/metrics"
)

func detection(kind types.TextTypes, text string, confidence float32) types.TextDetection {
	return types.TextDetection{Type: kind, DetectedText: aws.String(text), Confidence: aws.Float32(confidence)}
}

func TestRecognizePicksMostConfidentValidPlate(t *testing.T) {
	detector := &fakeDetector{output: &rekognition.DetectTextOutput{
		TextDetections: []types.TextDetection{
			detection(types.TextTypesLine, "RO", 99.5),
			detection(types.TextTypesLine, "B 767 NTT", 91),
			detection(types.TextTypesLine, "CJ 01 ABC", 85),
			detection(types.TextTypesWord, "B", 99),
			detection(types.TextTypesWord, "B 767 NTT", 60),
		},
	}}
	svc := NewLPRService(detector, metrics.New(nil), zerolog.Nop())

	result, err := svc.Recognize(context.Background(), []byte{0xff, 0xd8})
	require.NoError(t, err)
	require.NotNil(t, result.Plate)
	assert.Equal(t, "B767NTT", result.Plate.Plate)
	assert.InDelta(t, 91, result.Confidence, 0.001)

	kinds := map[string]string{}
	for _, r := range result.Rejected {
		kinds[r.Input] = r.ErrorKind
	}
	assert.Equal(t, map[string]string{
		"RO": "unknown_prefix",
		"B":  "number_length_invalid",
	}, kinds)
}

func TestRecognizeNoValidPlate(t *testing.T) {
	detector := &fakeDetector{output: &rekognition.DetectTextOutput{
		TextDetections: []types.TextDetection{
			detection(types.TextTypesLine, "b-767-ntt", 95),
			{Type: types.TextTypesLine},
		},
	}}
	svc := NewLPRService(detector, nil, zerolog.Nop())

	result, err := svc.Recognize(context.Background(), []byte{1})
	require.NoError(t, err)
	assert.Nil(t, result.Plate)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "lowercase_present", result.Rejected[0].ErrorKind)
}

func TestRecognizeErrors(t *testing.T) {
	_, err := NewLPRService(nil, nil, zerolog.Nop()).Recognize(context.Background(), []byte{1})
	assert.ErrorIs(t, err, ErrLPRUnavailable)

	backendErr := errors.New("throttled")
	svc := NewLPRService(&fakeDetector{err: backendErr}, nil, zerolog.Nop())
	_, err = svc.Recognize(context.Background(), []byte{1})
	assert.ErrorIs(t, err, backendErr)
}

func TestCollectCandidates(t *testing.T) {
	got := collectCandidates([]types.TextDetection{
		detection(types.TextTypesWord, "AB", 50),
		detection(types.TextTypesLine, "CD 101 202", 70),
		detection(types.TextTypesLine, "AB", 80),
	})
	require.Len(t, got, 2)
	assert.Equal(t, "AB", got[0].Text)
	assert.InDelta(t, 80, got[0].Confidence, 0.001)
	assert.Equal(t, "CD 101 202", got[1].Text)
}
