package handler

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func newTestClient(t *testing.T) *TillServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterTillServiceServer(srv, NewGRPCHandler(newTestSimulator(t), "R", zap.NewNop()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewTillServiceClient(conn)
}

func TestGRPCSimulate_Success(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.Simulate(context.Background(), &SimulateRequest{RequestID: "req-1", Input: sampleInput})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	require.Len(t, resp.Records, 2)
	assert.Equal(t, []int{20, 10}, resp.Records[0].Change)
	assert.Equal(t, 670, resp.FinalTotal)
	assert.Equal(t, 4, resp.FinalStock[50])
}

func TestGRPCSimulate_Errors(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.Simulate(ctx, &SimulateRequest{Input: "Bread R12"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Simulate(ctx, &SimulateRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Simulate(ctx, &SimulateRequest{RequestID: "dup", Input: sampleInput})
	require.NoError(t, err)
	_, err = client.Simulate(ctx, &SimulateRequest{RequestID: "dup", Input: sampleInput})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestSimulateResponse_Report(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.Simulate(context.Background(), &SimulateRequest{Input: sampleInput})
	require.NoError(t, err)

	rep := resp.Report()
	assert.Equal(t, resp.RunID, rep.RunID)
	require.Len(t, rep.Records, 2)
	assert.Equal(t, []int{20, 10}, rep.Records[0].Change)
	assert.Equal(t, "underpaid", string(rep.Records[1].Outcome))
	assert.Equal(t, 670, rep.FinalTotal)
}
