package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/paper-courier/internal/fakebackend"
	"github.com/yourusername/paper-courier/internal/jobs"
	"github.com/yourusername/paper-courier/internal/logger"
	"github.com/yourusername/paper-courier/internal/ops"
	"github.com/yourusername/paper-courier/internal/order"
)

func newController(client *Client) *jobs.Controller {
	return jobs.NewController(client, jobs.Options{
		PollInterval:    5 * time.Millisecond,
		MaxPollDuration: 5 * time.Second,
		Logger:          logger.Discard(),
	})
}

func TestMergeFollowsCollectionOrder(t *testing.T) {
	fake, client := newTestServer(t)
	fake.Script(ops.OperationMerge, fakebackend.Behavior{Steps: []fakebackend.Step{
		{Status: "processing", Processed: 1, Total: 2},
		{Status: "completed", Processed: 2, Total: 2},
	}})

	a := writeFile(t, "A.pdf", fakebackend.SamplePDF(1))
	b := writeFile(t, "B.pdf", fakebackend.SamplePDF(3))
	files := order.Of(inspect(t, a, b)...)

	// B を A の位置へ移動する
	ids := files.IDs()
	require.True(t, files.MoveOnto(ids[1], ids[0]))

	spec, params, err := ops.Prepare(ops.MergeParams{}, files.Payloads(), ops.Limits{})
	require.NoError(t, err)

	ctrl := newController(client)
	defer ctrl.Close()

	jobID, err := ctrl.Submit(context.Background(), spec, files.Payloads(), params)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := ctrl.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, jobs.StateCompleted, snap.State)
	assert.Equal(t, jobID, snap.Job.ID)
	assert.Equal(t, 100, snap.Job.Progress.Percent)

	uploads := fake.Uploads(jobID)
	require.Len(t, uploads, 2)
	assert.Equal(t, "B.pdf", uploads[0].Filename)
	assert.Equal(t, "A.pdf", uploads[1].Filename)
	assert.JSONEq(t, `{"file_order":[0,1]}`, string(fake.StartBody(jobID)))
	assert.Equal(t, 1, fake.Calls(ops.OperationMerge, fakebackend.VerbCreate))
	assert.Equal(t, 1, fake.Calls(ops.OperationMerge, fakebackend.VerbStart))
}

func TestPDFToImagesSkipsStart(t *testing.T) {
	fake, client := newTestServer(t)
	in := inspect(t, writeFile(t, "doc.pdf", fakebackend.SamplePDF(2)))

	spec, params, err := ops.Prepare(ops.NewPDFToImagesParams(), in, ops.Limits{})
	require.NoError(t, err)

	ctrl := newController(client)
	defer ctrl.Close()

	_, err = ctrl.Submit(context.Background(), spec, in, params)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := ctrl.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, jobs.StateCompleted, snap.State)
	assert.Zero(t, fake.Calls(ops.OperationPDFToImages, fakebackend.VerbStart))
}

func TestJobFailureSurfacesServerMessage(t *testing.T) {
	fake, client := newTestServer(t)
	fake.Script(ops.OperationDeskew, fakebackend.Behavior{Steps: []fakebackend.Step{
		{Status: "processing", Processed: 0, Total: 1},
		{Status: "failed", Error: "could not detect skew"},
	}})
	in := inspect(t, writeFile(t, "scan.pdf", fakebackend.SamplePDF(1)))

	ctrl := newController(client)
	defer ctrl.Close()

	_, err := ctrl.Submit(context.Background(), ops.Specs[ops.OperationDeskew], in, ops.DeskewParams{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := ctrl.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, jobs.StateFailed, snap.State)
	require.NotNil(t, snap.Failure)
	assert.Equal(t, jobs.FailureJob, snap.Failure.Kind)
	assert.Equal(t, "could not detect skew", snap.Failure.Message)
}

func TestStatusTransportErrorIsUnknown(t *testing.T) {
	fake, client := newTestServer(t)
	fake.Script(ops.OperationCompress, fakebackend.Behavior{FailStatusFrom: 1})
	in := inspect(t, writeFile(t, "doc.pdf", fakebackend.SamplePDF(1)))

	ctrl := newController(client)
	defer ctrl.Close()

	_, err := ctrl.Submit(context.Background(), ops.Specs[ops.OperationCompress], in, ops.CompressParams{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := ctrl.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, jobs.StateFailed, snap.State)
	require.NotNil(t, snap.Failure)
	assert.Equal(t, jobs.FailureStatusUnknown, snap.Failure.Kind)

	var httpErr *HTTPError
	require.ErrorAs(t, snap.Failure.Err, &httpErr)
	assert.Equal(t, 500, httpErr.StatusCode)
	assert.Equal(t, 1, fake.Calls(ops.OperationCompress, fakebackend.VerbStatus))
}

func TestCreateErrorReturnsToIdle(t *testing.T) {
	fake, client := newTestServer(t)
	fake.Script(ops.OperationSplit, fakebackend.Behavior{FailCreate: 413})
	in := inspect(t, writeFile(t, "doc.pdf", fakebackend.SamplePDF(2)))

	ctrl := newController(client)
	defer ctrl.Close()

	_, err := ctrl.Submit(context.Background(), ops.Specs[ops.OperationSplit], in, ops.SplitParams{Pages: []int{0}})

	var submitErr *jobs.SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, jobs.StageCreate, submitErr.Stage)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 413, httpErr.StatusCode)
	assert.Equal(t, jobs.StateIdle, ctrl.State())
}
