package handlers

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text     string
		wantCmd  string
		wantArgs string
	}{
		{"/set 7 30", "set", "7 30"},
		{"/set", "set", ""},
		{"/set@morning_bot 7 30", "set", "7 30"},
		{"/unset", "unset", ""},
		{"/ping", "ping", ""},
		{"/start", "start", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd, args := parseCommand(tt.text)
			assert.Equal(t, tt.wantCmd, cmd)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		msg  *models.Message
		want string
	}{
		{"first name wins", &models.Message{From: &models.User{FirstName: "Alice", Username: "al"}}, "Alice"},
		{"username fallback", &models.Message{From: &models.User{Username: "al"}}, "al"},
		{"anonymous", &models.Message{From: &models.User{}}, "friend"},
		{"no sender", &models.Message{}, "friend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, displayName(tt.msg))
		})
	}
}
