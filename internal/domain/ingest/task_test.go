package ingest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestTask(t *testing.T) *ProcessTask {
	task, err := NewProcessTask(uuid.New(), uuid.New(), "orders.xlsx", 2048, "a3f1", "SS")
	require.NoError(t, err)
	return task
}

func TestTaskStatus(t *testing.T) {
	t.Run("IsValid", func(t *testing.T) {
		assert.True(t, TaskStatusPending.IsValid())
		assert.True(t, TaskStatusProcessing.IsValid())
		assert.True(t, TaskStatusCompleted.IsValid())
		assert.True(t, TaskStatusFailed.IsValid())
		assert.True(t, TaskStatusCancelled.IsValid())
		assert.False(t, TaskStatus("unknown").IsValid())
	})

	t.Run("IsTerminal", func(t *testing.T) {
		assert.False(t, TaskStatusPending.IsTerminal())
		assert.False(t, TaskStatusProcessing.IsTerminal())
		assert.True(t, TaskStatusCompleted.IsTerminal())
		assert.True(t, TaskStatusFailed.IsTerminal())
		assert.True(t, TaskStatusCancelled.IsTerminal())
	})
}

func TestNewProcessTask(t *testing.T) {
	t.Run("starts pending with zero counters", func(t *testing.T) {
		task := createTestTask(t)
		assert.Equal(t, TaskStatusPending, task.Status)
		assert.Equal(t, 0, task.TotalRows)
		assert.Equal(t, 0, task.ProcessedRows)
		assert.True(t, task.CountersConsistent())
		require.NotNil(t, task.CreatedBy)
	})

	t.Run("rejects missing file name or hash", func(t *testing.T) {
		_, err := NewProcessTask(uuid.New(), uuid.New(), "", 10, "a3f1", "SS")
		assert.Error(t, err)

		_, err = NewProcessTask(uuid.New(), uuid.New(), "orders.xlsx", 10, "", "SS")
		assert.Error(t, err)
	})

	t.Run("rejects negative file size", func(t *testing.T) {
		_, err := NewProcessTask(uuid.New(), uuid.New(), "orders.xlsx", -1, "a3f1", "SS")
		assert.Error(t, err)
	})
}

func TestProcessTask_Lifecycle(t *testing.T) {
	t.Run("pending to processing records totals and start time", func(t *testing.T) {
		task := createTestTask(t)
		require.NoError(t, task.StartProcessing(10))

		assert.Equal(t, TaskStatusProcessing, task.Status)
		assert.Equal(t, 10, task.TotalRows)
		require.NotNil(t, task.StartedAt)
	})

	t.Run("cannot start twice", func(t *testing.T) {
		task := createTestTask(t)
		require.NoError(t, task.StartProcessing(10))
		assert.Error(t, task.StartProcessing(10))
	})

	t.Run("complete requires every row accounted for", func(t *testing.T) {
		task := createTestTask(t)
		require.NoError(t, task.StartProcessing(2))

		err := task.Complete()
		assert.Error(t, err)

		task.ProcessedRows = 2
		task.SucceededRows = 1
		task.ManualRows = 1
		require.NoError(t, task.Complete())
		assert.Equal(t, TaskStatusCompleted, task.Status)
		require.NotNil(t, task.CompletedAt)
		assert.True(t, task.CountersConsistent())
	})

	t.Run("complete illegal from pending", func(t *testing.T) {
		task := createTestTask(t)
		assert.Error(t, task.Complete())
	})

	t.Run("fail preserves counters", func(t *testing.T) {
		task := createTestTask(t)
		require.NoError(t, task.StartProcessing(5))
		task.ProcessedRows = 3
		task.SucceededRows = 3

		require.NoError(t, task.Fail("classifier unreachable"))
		assert.Equal(t, TaskStatusFailed, task.Status)
		assert.Equal(t, "classifier unreachable", task.FailureReason)
		assert.Equal(t, 3, task.ProcessedRows)
	})

	t.Run("cancel allowed from pending and processing only", func(t *testing.T) {
		task := createTestTask(t)
		require.NoError(t, task.Cancel())
		assert.Equal(t, TaskStatusCancelled, task.Status)

		task = createTestTask(t)
		require.NoError(t, task.StartProcessing(5))
		require.NoError(t, task.Cancel())

		assert.Error(t, task.Cancel())

		task = createTestTask(t)
		require.NoError(t, task.StartProcessing(0))
		require.NoError(t, task.Complete())
		assert.Error(t, task.Cancel())
	})
}

func TestProcessTask_AverageConfidence(t *testing.T) {
	task := createTestTask(t)
	assert.Equal(t, 0.0, task.AverageConfidence())

	task.ProcessedRows = 4
	task.ConfidenceSum = 3.4
	assert.InDelta(t, 0.85, task.AverageConfidence(), 1e-9)
}

func TestProcessTask_Snapshot(t *testing.T) {
	task := createTestTask(t)
	require.NoError(t, task.StartProcessing(8))
	task.ProcessedRows = 5
	task.SucceededRows = 3
	task.FailedRows = 1
	task.ManualRows = 1
	task.ConfidenceSum = 4.0

	p := task.Snapshot()
	assert.Equal(t, task.ID, p.TaskID)
	assert.Equal(t, TaskStatusProcessing, p.Status)
	assert.Equal(t, 8, p.TotalRows)
	assert.Equal(t, 5, p.ProcessedRows)
	assert.InDelta(t, 0.8, p.AvgConfidence, 1e-9)
}
