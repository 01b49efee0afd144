package matches

import (
	"context"
	"strconv"

	"github.com/rishtahub/match-engine/internal/app"
	"github.com/rishtahub/match-engine/internal/engine"
	svcErr "github.com/rishtahub/match-engine/internal/errors"
	pb "github.com/rishtahub/match-engine/internal/proto/matches"
	"github.com/rishtahub/match-engine/internal/repository"
)

// Pagination guard rails for GetMatches.
const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Service implements the MatchService gRPC API on top of the match engine:
// cached feed reads via engine.Reader, per-user refreshes via
// engine.Orchestrator.
type Service struct {
	appCtx       *app.AppContext
	reader       *engine.Reader
	orchestrator *engine.Orchestrator

	pb.UnimplementedMatchServiceServer
}

// NewMatchService assembles the full engine stack from AppContext:
// repositories over the DB connection, scorer → materializer pipeline,
// orchestrator and reader on top.
func NewMatchService(appCtx *app.AppContext) *Service {
	users := repository.NewUserRepository(appCtx.DB)
	candidates := repository.NewCandidateRepository(appCtx.DB)

	scorer := engine.NewScorer(users, candidates, appCtx.Logger)
	materializer := engine.NewMaterializer(users, appCtx.MatchCache, appCtx.Logger)
	pipeline := engine.NewPipeline(scorer, materializer)

	return &Service{
		appCtx:       appCtx,
		reader:       engine.NewReader(appCtx.MatchCache, users, appCtx.Logger),
		orchestrator: engine.NewOrchestrator(users, pipeline, 0, appCtx.Logger),
	}
}

// GetMatches returns one page of the caller's ranked match feed.
//
// Behavior:
//   - Reads descending-by-score from the user's cached entry.
//   - Absent or expired entry yields an empty page with total_count 0.
//   - total_count always reflects the whole entry, not the page.
func (s *Service) GetMatches(ctx context.Context, req *pb.GetMatchesRequest) (*pb.GetMatchesResponse, error) {
	s.appCtx.Logger.Debug("GetMatches called", "user_id", req.GetUserId(), "offset", req.GetOffset(), "limit", req.GetLimit())

	userID, err := strconv.ParseUint(req.GetUserId(), 10, 64)
	if err != nil {
		return nil, svcErr.InvalidArgument("user_id must be a valid uint64")
	}

	limit := int64(req.GetLimit())
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	summaries, total, err := s.reader.Read(ctx, userID, int64(req.GetOffset()), limit)
	if err != nil {
		s.appCtx.Logger.Error("GetMatches read failed", "user_id", userID, "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &pb.GetMatchesResponse{TotalCount: uint64(total)}
	for _, m := range summaries {
		resp.Matches = append(resp.Matches, &pb.MatchSummary{
			UserId:   strconv.FormatUint(m.UserID, 10),
			FullName: m.FullName,
			Age:      uint32(m.Age),
			City:     m.City,
			PhotoUrl: m.PhotoURL,
			Score:    m.Score,
		})
	}

	s.appCtx.Logger.Debug("GetMatches result", "user_id", userID, "rows", len(resp.Matches), "total", total)
	return resp, nil
}

// RefreshMatches recomputes the given user's match cache, synchronously.
// The registration workflow calls this right after the account row commits;
// engine failures are logged and swallowed so registration never fails on a
// cache hiccup.
func (s *Service) RefreshMatches(ctx context.Context, req *pb.RefreshMatchesRequest) (*pb.RefreshMatchesResponse, error) {
	userID, err := strconv.ParseUint(req.GetUserId(), 10, 64)
	if err != nil {
		return nil, svcErr.InvalidArgument("user_id must be a valid uint64")
	}

	s.orchestrator.RunForUser(ctx, userID)

	return &pb.RefreshMatchesResponse{Accepted: true}, nil
}
