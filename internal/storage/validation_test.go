package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/service"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name      string
		str       string
		paramName string
		wantErr   bool
	}{
		{
			name:      "valid string",
			str:       "test",
			paramName: "param",
			wantErr:   false,
		},
		{
			name:      "empty string",
			str:       "",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "whitespace only",
			str:       "   ",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "string with spaces",
			str:       "  test  ",
			paramName: "param",
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.paramName) {
				t.Errorf("validateString() error should contain param name %s, got %v", tt.paramName, err)
			}
		})
	}
}

func TestValidateDocuments(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		docs    []service.Document
		wantErr bool
	}{
		{
			name: "valid documents",
			docs: []service.Document{
				{Source: "csv", Content: "Nome: Pikachu"},
				{Source: "report", Content: "Resumo"},
			},
		},
		{
			name:    "no documents",
			docs:    nil,
			wantErr: false,
		},
		{
			name:    "blank content",
			docs:    []service.Document{{Source: "csv", Content: "  "}},
			wantErr: true,
			errMsg:  "index 0 has no content",
		},
		{
			name: "missing source",
			docs: []service.Document{
				{Source: "csv", Content: "ok"},
				{Content: "Nome: Eevee"},
			},
			wantErr: true,
			errMsg:  "index 1 has no source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateDocuments(tt.docs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateDocuments() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("validateDocuments() error should wrap ErrInvalidDocument, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validateDocuments() error should contain %q, got %v", tt.errMsg, err)
			}
		})
	}
}
