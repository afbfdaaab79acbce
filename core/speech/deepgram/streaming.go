package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-narrator/core/audio"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type websocketMessage struct {
	Type string `json:"type"`
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	closeMsg = websocketMessage{Type: "Close"}
)

func sendTextMsg(text string) speakMessage {
	return speakMessage{Type: "Speak", Text: text}
}

// synthesize speaks each segment over a single connection and returns the
// audio of every segment separately. Segments are sent one at a time,
// waiting for the Flushed confirmation in between, since the API can drop
// text sent straight after a flush.
func synthesize(ctx context.Context, endpoint url.URL, apiKey string, voice Voice, encodingInfo audio.EncodingInfo, segments []string) (_ [][]byte, err error) {
	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "speech synthesis failed")
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("voice", string(voice)),
		attribute.Int("segments", len(segments)),
	)

	conn, err := connectWebsocket(ctx, endpoint, apiKey, voice, encodingInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to open websocket: %w", err)
	}
	defer func() {
		if writeErr := conn.WriteJSON(closeMsg); writeErr != nil {
			logger.Debug("failed to send close message to deepgram", "error", writeErr)
		}
		_ = conn.Close()
	}()

	// Unblocks ReadMessage when the caller gives up.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	generated := make([][]byte, 0, len(segments))
	for _, segment := range segments {
		if err := conn.WriteJSON(sendTextMsg(segment)); err != nil {
			return nil, withContextErr(ctx, fmt.Errorf("failed to send text to deepgram through websocket: %w", err))
		}
		if err := conn.WriteJSON(flushMsg); err != nil {
			return nil, withContextErr(ctx, fmt.Errorf("failed to flush deepgram buffer through websocket: %w", err))
		}

		segmentAudio, err := readUntilFlushed(conn)
		if err != nil {
			return nil, withContextErr(ctx, err)
		}
		generated = append(generated, segmentAudio)
	}

	return generated, nil
}

func connectWebsocket(ctx context.Context, endpoint url.URL, apiKey string, voice Voice, encodingInfo audio.EncodingInfo) (*websocket.Conn, error) {
	if encodingInfo.IsZero() {
		encodingInfo = audio.GetDefaultEncodingInfo()
	}

	urlValues := url.Values{}
	urlValues.Set("encoding", encodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("model", string(voice))
	urlValues.Set("container", "none")
	endpoint.RawQuery = urlValues.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx,
		endpoint.String(),
		http.Header{"Authorization": {"token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

func readUntilFlushed(conn *websocket.Conn) ([]byte, error) {
	var generated []byte
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("websocket read failed before flush: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			generated = append(generated, msg...)
		case websocket.TextMessage:
			var parsedMsg struct {
				Type    string `json:"type"`
				ErrMsg  string `json:"err_msg"`
				ErrCode string `json:"err_code"`
				Warning string `json:"warn_msg"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Debug("failed to unmarshal deepgram message", "error", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				return generated, nil
			case "Error":
				return nil, fmt.Errorf("deepgram error %s: %s", parsedMsg.ErrCode, parsedMsg.ErrMsg)
			case "Warning":
				logger.Warn("deepgram warning", "message", parsedMsg.Warning)
			}
		}
	}
}

func withContextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Join(ctxErr, err)
	}
	return err
}

var sentenceBoundary = regexp.MustCompile(`([.!?;:])\s+`)

// segmentText splits text at sentence punctuation when split is set.
// Empty segments are dropped; at least one segment is always returned.
func segmentText(text string, split bool) []string {
	if !split {
		return []string{text}
	}

	marked := sentenceBoundary.ReplaceAllString(text, "$1\n")
	var segments []string
	for _, segment := range strings.Split(marked, "\n") {
		if segment = strings.TrimSpace(segment); segment != "" {
			segments = append(segments, segment)
		}
	}
	if len(segments) == 0 {
		return []string{text}
	}
	return segments
}
