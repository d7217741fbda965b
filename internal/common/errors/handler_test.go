package errors

import (
	"context"
	goerrors "errors"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

// ==========================
// Test Helpers
// ==========================

type recordingLogger struct {
	messages []string
	fields   []map[string]interface{}
}

func (l *recordingLogger) Error(msg string, fields map[string]interface{}) {
	l.messages = append(l.messages, msg)
	l.fields = append(l.fields, fields)
}

// gateway answers fail/throw requests with err and records what it received.
type gateway struct {
	pb.GatewayClient
	err    error
	failed []*pb.FailJobRequest
	thrown []*pb.ThrowErrorRequest
}

func (g *gateway) FailJob(_ context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.failed = append(g.failed, in)
	return &pb.FailJobResponse{}, g.err
}

func (g *gateway) ThrowError(_ context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.thrown = append(g.thrown, in)
	return &pb.ThrowErrorResponse{}, g.err
}

func noRetry(context.Context, error) bool { return false }

type jobClient struct{ gw *gateway }

func (c jobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.gw, noRetry)
}

func (c jobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.gw, noRetry)
}

func (c jobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.gw, noRetry)
}

func job(retries int32) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42, Type: "rank-offers", Retries: retries}}
}

// ==========================
// HandleJobError
// ==========================

func TestHandleJobError_ThrowsNonRetryable(t *testing.T) {
	gw := &gateway{}
	log := &recordingLogger{}

	NewErrorHandler(log).HandleJobError(context.Background(), jobClient{gw}, job(3), NewSinkWriteFailedError(goerrors.New("down")))

	require.Len(t, gw.thrown, 1)
	assert.Empty(t, gw.failed)
	assert.Equal(t, int64(42), gw.thrown[0].JobKey)
	assert.Equal(t, string(ErrCodeSinkWriteFailed), gw.thrown[0].ErrorCode)
	assert.Equal(t, []string{"recommendation job failed"}, log.messages)
}

func TestHandleJobError_FailsRetryableWithRemainingRetries(t *testing.T) {
	gw := &gateway{}

	NewErrorHandler(&recordingLogger{}).HandleJobError(context.Background(), jobClient{gw}, job(2), NewCatalogFetchFailedError(goerrors.New("timeout")))

	require.Len(t, gw.failed, 1)
	assert.Empty(t, gw.thrown)
	assert.Equal(t, int32(2), gw.failed[0].Retries)
}

func TestHandleJobError_LogsUndeliveredCommands(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		command string
	}{
		{"throw", NewCatalogEmptyError(), "throw"},
		{"fail", NewCatalogFetchFailedError(goerrors.New("timeout")), "fail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &gateway{err: goerrors.New("rpc error: code = Unavailable")}
			log := &recordingLogger{}

			NewErrorHandler(log).HandleJobError(context.Background(), jobClient{gw}, job(3), tt.err)

			require.Len(t, log.messages, 2)
			assert.Equal(t, "job error command not delivered", log.messages[1])
			assert.Equal(t, tt.command, log.fields[1]["command"])
			assert.Equal(t, int64(42), log.fields[1]["jobKey"])
			assert.Contains(t, log.fields[1]["error"], "Unavailable")
		})
	}
}
