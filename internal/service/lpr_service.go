package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/rs/zerolog"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/domain"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/metrics"
)

var ErrLPRUnavailable = errors.New("text detection backend is not configured")

// TextDetector is the subset of the Rekognition client used for plate reading.
type TextDetector interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

type LPRService struct {
	detector TextDetector
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewLPRService(detector TextDetector, m *metrics.Metrics, logger zerolog.Logger) *LPRService {
	return &LPRService{
		detector: detector,
		metrics:  m,
		logger:   logger.With().Str("component", "lpr").Logger(),
	}
}

// Recognize sends image to the detector and keeps the most confident text
// block that validates as a plate. Every other block is reported back as a
// rejection. A result without a plate is not an error.
func (s *LPRService) Recognize(ctx context.Context, image []byte) (*domain.LPRResult, error) {
	if s.detector == nil {
		return nil, ErrLPRUnavailable
	}

	start := time.Now()
	output, err := s.detector.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: image},
	})
	s.metrics.ObserveDetect(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("LPRService.Recognize: %w", err)
	}

	candidates := collectCandidates(output.TextDetections)
	s.logger.Debug().Int("detections", len(output.TextDetections)).Int("candidates", len(candidates)).Msg("text detected")

	result := &domain.LPRResult{Rejected: []domain.PlateRejection{}}
	for _, c := range candidates {
		p, err := validatePlate(s.metrics, c.Text)
		if err != nil {
			result.Rejected = append(result.Rejected, *domain.NewPlateRejection(c.Text, err))
			continue
		}
		// candidates are sorted by confidence, the first valid one wins
		if result.Plate == nil {
			result.Plate = domain.NewPlateDTO(p)
			result.Confidence = c.Confidence
		}
	}

	if result.Plate != nil {
		s.logger.Info().Str("plate", result.Plate.Plate).Float32("confidence", result.Confidence).Msg("plate recognized")
	} else {
		s.logger.Info().Int("rejected", len(result.Rejected)).Msg("no valid plate in image")
	}
	return result, nil
}

// collectCandidates keeps LINE and WORD detections, drops duplicate texts
// (keeping the higher confidence) and orders them by confidence, highest first.
func collectCandidates(detections []types.TextDetection) []domain.LPRCandidate {
	best := make(map[string]float32)
	var order []string
	for _, d := range detections {
		if d.Type != types.TextTypesLine && d.Type != types.TextTypesWord {
			continue
		}
		if d.DetectedText == nil || d.Confidence == nil {
			continue
		}
		text := *d.DetectedText
		prev, seen := best[text]
		if !seen {
			order = append(order, text)
		}
		if !seen || *d.Confidence > prev {
			best[text] = *d.Confidence
		}
	}

	candidates := make([]domain.LPRCandidate, 0, len(order))
	for _, text := range order {
		candidates = append(candidates, domain.LPRCandidate{Text: text, Confidence: best[text]})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	return candidates
}
