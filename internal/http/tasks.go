package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
)

const taskStatusTimeout = 5 * time.Second

var taskStatusNames = map[backlite.TaskStatus]string{
	backlite.TaskStatusPending: "pending",
	backlite.TaskStatusRunning: "running",
	backlite.TaskStatusSuccess: "success",
	backlite.TaskStatusFailure: "failure",
}

// TaskStatusResponse lets clients poll a queued enrichment run.
type TaskStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Done   bool   `json:"done"`
}

// TasksController reports on queued background work.
type TasksController struct {
	tasks TaskStatusReader
}

func NewTasksController(tasks TaskStatusReader) *TasksController {
	return &TasksController{tasks: tasks}
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), taskStatusTimeout)
	defer cancel()

	id := c.Param("id")
	status, err := tc.tasks.Status(ctx, id)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	name, known := taskStatusNames[status]
	if !known {
		respondNotFound(c, "task")
		return
	}
	c.JSON(http.StatusOK, TaskStatusResponse{
		ID:     id,
		Status: name,
		Done:   status == backlite.TaskStatusSuccess || status == backlite.TaskStatusFailure,
	})
}
