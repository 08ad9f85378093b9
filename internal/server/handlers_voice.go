package server

import (
	"io"
	"net/http"
)

// maxAudioSize caps voice uploads at 25 MB.
const maxAudioSize = 25 << 20

// handleVoiceTranscribe handles POST /v1/voice/transcribe. Accepts a
// multipart "audio" file and returns the transcript. The caller decides
// whether to turn the text into a log.
func (s *Server) handleVoiceTranscribe(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.userID(w, r); !ok {
		return
	}
	if s.cfg.ElevenLabsAPIKey == "" {
		s.errorResponse(w, http.StatusServiceUnavailable, "voice transcription is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioSize)
	if err := r.ParseMultipartForm(maxAudioSize); err != nil {
		s.errorResponse(w, http.StatusRequestEntityTooLarge, "audio exceeds 25MB limit")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "multipart field 'audio' is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "failed to read uploaded audio")
		return
	}

	text, err := s.transcriber.Transcribe(r.Context(), audio, header.Filename)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"text": text})
}
