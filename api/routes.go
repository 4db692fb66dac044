package api

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/tabflow/dag"
	"github.com/kbukum/tabflow/errors"
	"github.com/kbukum/tabflow/frame"
	"github.com/kbukum/tabflow/observability"
	"github.com/kbukum/tabflow/operation"
)

func (s *Server) routes() {
	r := s.engine
	r.GET("/health", s.health)
	r.GET("/operations", s.listOperations)

	r.GET("/pipeline", s.getPipeline)
	r.PUT("/pipeline", s.putPipeline)

	r.POST("/nodes", s.createNode)
	r.GET("/nodes/:id", s.getNode)
	r.DELETE("/nodes/:id", s.deleteNode)
	r.PUT("/nodes/:id/options", s.putOptions)

	r.POST("/edges", s.createEdge)
	r.DELETE("/edges/:source/:target", s.deleteEdge)

	r.POST("/run", s.startRun)
	r.GET("/run", s.getRun)
	r.POST("/run/reset", s.resetRun)
	r.GET("/run/events", s.streamEvents)

	r.GET("/frames", s.listFrames)
	r.GET("/frames/:name", s.getFrame)
	r.PUT("/frames/:name", s.putFrame)
	r.DELETE("/frames/:name", s.deleteFrame)
}

type createNodeRequest struct {
	Operation string            `json:"operation" binding:"required"`
	Options   operation.Options `json:"options"`
	Metadata  map[string]any    `json:"metadata"`
}

type edgeRequest struct {
	Source *int `json:"source" binding:"required,gte=0"`
	Target *int `json:"target" binding:"required,gte=0"`
	Slot   int  `json:"slot" binding:"gte=0"`
}

// changes lists the nodes an edit touched.
type changes struct {
	Changed []int `json:"changed"`
}

func (s *Server) health(c *gin.Context) {
	h := observability.Check(c.Request.Context(), s.service, s.version, s.pipeline.Handler)
	status := http.StatusOK
	if h.Status == observability.HealthStatusDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, DataResponse{Data: h})
}

func (s *Server) listOperations(c *gin.Context) {
	RespondOK(c, s.pipeline.Registry.List())
}

func (s *Server) getPipeline(c *gin.Context) {
	var doc *dag.Document
	_ = s.pipeline.Read(func(g *dag.OperationDag) error {
		doc = g.Serialize()
		return nil
	})
	RespondOK(c, doc)
}

func (s *Server) putPipeline(c *gin.Context) {
	var doc dag.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		RespondWithError(c, bindError(err))
		return
	}
	if err := s.pipeline.Load(&doc); err != nil {
		RespondWithError(c, err)
		return
	}
	s.getPipeline(c)
}

func (s *Server) createNode(c *gin.Context) {
	var req createNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, bindError(err))
		return
	}
	op, err := s.pipeline.Registry.New(req.Operation)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	var view *NodeView
	err = s.pipeline.Edit(func(g *dag.OperationDag) error {
		if req.Options != nil {
			if err := op.SetOptions(req.Options); err != nil {
				return err
			}
		}
		n := g.NewNode(op)
		g.AddNode(n)
		if req.Metadata != nil {
			if err := g.SetMetadata(n.ID(), req.Metadata); err != nil {
				return err
			}
		}
		view, err = nodeView(g, n.ID())
		return err
	})
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondCreated(c, view)
}

func (s *Server) getNode(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		RespondWithError(c, err)
		return
	}
	var view *NodeView
	err = s.pipeline.Read(func(g *dag.OperationDag) error {
		view, err = nodeView(g, id)
		return err
	})
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, view)
}

func (s *Server) deleteNode(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		RespondWithError(c, err)
		return
	}
	s.edit(c, func(g *dag.OperationDag) (map[int]struct{}, error) {
		return g.RemoveNode(id)
	})
}

func (s *Server) putOptions(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		RespondWithError(c, err)
		return
	}
	var opts operation.Options
	if err := c.ShouldBindJSON(&opts); err != nil {
		RespondWithError(c, bindError(err))
		return
	}
	s.edit(c, func(g *dag.OperationDag) (map[int]struct{}, error) {
		return g.UpdateNodeOptions(id, opts)
	})
}

func (s *Server) createEdge(c *gin.Context) {
	var req edgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, bindError(err))
		return
	}
	err := s.pipeline.Edit(func(g *dag.OperationDag) error {
		_, err := g.AddConnection(*req.Source, *req.Target, req.Slot)
		return err
	})
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondCreated(c, dag.Edge{Source: *req.Source, Target: *req.Target, Slot: req.Slot})
}

func (s *Server) deleteEdge(c *gin.Context) {
	source, err := intParam(c, "source")
	if err != nil {
		RespondWithError(c, err)
		return
	}
	target, err := intParam(c, "target")
	if err != nil {
		RespondWithError(c, err)
		return
	}
	s.edit(c, func(g *dag.OperationDag) (map[int]struct{}, error) {
		return g.RemoveConnection(source, target)
	})
}

// edit applies fn and responds with the ids it reports.
func (s *Server) edit(c *gin.Context, fn func(g *dag.OperationDag) (map[int]struct{}, error)) {
	var ids map[int]struct{}
	err := s.pipeline.Edit(func(g *dag.OperationDag) error {
		var err error
		ids, err = fn(g)
		return err
	})
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, changes{Changed: sortedKeys(ids)})
}

func (s *Server) startRun(c *gin.Context) {
	id, err := s.pipeline.Start(c.Request.Context())
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondAccepted(c, gin.H{"run_id": id})
}

func (s *Server) getRun(c *gin.Context) {
	h := s.pipeline.Handler
	RespondOK(c, RunView{
		State:    h.State(),
		RunID:    h.RunID(),
		Statuses: h.Statuses(),
		Last:     h.LastSummary(),
	})
}

func (s *Server) resetRun(c *gin.Context) {
	if s.pipeline.Handler.Running() {
		RespondWithError(c, errors.FlowRunning())
		return
	}
	s.pipeline.Handler.ResetFlowStatus()
	s.getRun(c)
}

func (s *Server) listFrames(c *gin.Context) {
	RespondOK(c, s.pipeline.Workbench.Names())
}

func (s *Server) getFrame(c *gin.Context) {
	f, err := s.pipeline.Workbench.Frame(c.Param("name"))
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, f)
}

func (s *Server) putFrame(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		RespondWithError(c, bindError(err))
		return
	}
	var f frame.Frame
	if err := f.UnmarshalJSON(body); err != nil {
		RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return
	}
	changed, err := s.pipeline.SetFrame(c.Param("name"), &f)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, changes{Changed: changed})
}

func (s *Server) deleteFrame(c *gin.Context) {
	changed, err := s.pipeline.DeleteFrame(c.Param("name"))
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, changes{Changed: changed})
}

func intParam(c *gin.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v < 0 {
		return 0, errors.InvalidInput(name, "must be a non-negative integer")
	}
	return v, nil
}

// bindError maps request decoding failures to INVALID_INPUT, and bodies
// over the size limit to 413.
func bindError(err error) *errors.AppError {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		appErr := errors.InvalidInput("body", "request body too large")
		appErr.HTTPStatus = http.StatusRequestEntityTooLarge
		return appErr
	}
	return errors.InvalidInput("body", err.Error()).WithCause(err)
}

func errNoRoute(c *gin.Context) *errors.AppError {
	return errors.NotFound("route", c.Request.Method+" "+c.Request.URL.Path)
}
