package models

import (
	"encoding/json"
	"fmt"
)

// DTO запросов и ответов backend-сервиса

type AnalyzeRequest struct {
	SessionID string  `json:"session_id"`
	Threshold float64 `json:"threshold"`
}

type CompareRequest struct {
	SessionID string `json:"session_id"`
	File1     string `json:"file1"`
	File2     string `json:"file2"`
}

type ConverseRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type CleanupRequest struct {
	SessionID string `json:"session_id"`
}

type UploadComplete struct {
	Success   bool     `json:"success"`
	SessionID string   `json:"session_id"`
	Files     []string `json:"files"`
}

type CompareResponse struct {
	Success         bool    `json:"success"`
	File1           string  `json:"file1"`
	File2           string  `json:"file2"`
	SimilarityScore float64 `json:"similarity_score"`
	Error           string  `json:"error,omitempty"`
}

type ConverseResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

type CleanupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DecodeUploadComplete разбирает полезную нагрузку события complete загрузки.
func DecodeUploadComplete(payload []byte) (*UploadComplete, error) {
	var done UploadComplete
	if err := json.Unmarshal(payload, &done); err != nil {
		return nil, fmt.Errorf("failed to decode upload payload: %w", err)
	}
	if !done.Success {
		return nil, fmt.Errorf("upload payload reported success=false")
	}
	if done.SessionID == "" {
		return nil, fmt.Errorf("upload payload has no session id")
	}
	return &done, nil
}
