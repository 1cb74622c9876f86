// Package graphql exposes the parking API as a GraphQL endpoint. The schema
// is built at startup; authorization is enforced per resolver so the gate
// kiosk mutations stay reachable without a token.
package graphql

import (
	"context"
	"errors"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"

	"github.com/auragate/parking-backend/internal/api/metrics"
	"github.com/auragate/parking-backend/internal/core/domain"
	"github.com/auragate/parking-backend/internal/core/ports"
)

type ctxKey int

const (
	ctxKeyUserID ctxKey = iota
	ctxKeyRole
)

// WithIdentity attaches the authenticated caller to ctx. An empty id leaves
// the context anonymous.
func WithIdentity(ctx context.Context, userID, role string) context.Context {
	if userID == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, ctxKeyUserID, userID)
	return context.WithValue(ctx, ctxKeyRole, role)
}

func identityFrom(ctx context.Context) (userID, role string) {
	userID, _ = ctx.Value(ctxKeyUserID).(string)
	role, _ = ctx.Value(ctxKeyRole).(string)
	return userID, role
}

// Resolver holds the service dependencies behind the schema.
type Resolver struct {
	sessions ports.SessionService
	users    ports.UserService
	stats    ports.StatsService
	log      zerolog.Logger
}

func NewResolver(sessions ports.SessionService, users ports.UserService, stats ports.StatsService, log zerolog.Logger) *Resolver {
	return &Resolver{sessions: sessions, users: users, stats: stats, log: log}
}

// requireAdmin rejects callers that are not authenticated as ADMIN.
func requireAdmin(ctx context.Context) error {
	userID, role := identityFrom(ctx)
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	if role != string(domain.RoleAdmin) {
		return domain.ErrForbidden
	}
	return nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (r *Resolver) hello(graphql.ResolveParams) (interface{}, error) {
	return "AuraGate backend is running", nil
}

func (r *Resolver) me(p graphql.ResolveParams) (interface{}, error) {
	userID, _ := identityFrom(p.Context)
	return r.users.Me(p.Context, userID)
}

func (r *Resolver) allSessions(p graphql.ResolveParams) (interface{}, error) {
	return r.sessions.AllSessions(p.Context)
}

func (r *Resolver) activeSessions(p graphql.ResolveParams) (interface{}, error) {
	return r.sessions.ActiveSessions(p.Context)
}

func (r *Resolver) userHistory(p graphql.ResolveParams) (interface{}, error) {
	userID, _ := p.Args["userId"].(string)
	return r.sessions.UserHistory(p.Context, userID)
}

func (r *Resolver) allUsers(p graphql.ResolveParams) (interface{}, error) {
	if err := requireAdmin(p.Context); err != nil {
		return nil, err
	}
	return r.users.AllUsers(p.Context)
}

func (r *Resolver) allEmployees(p graphql.ResolveParams) (interface{}, error) {
	if err := requireAdmin(p.Context); err != nil {
		return nil, err
	}
	return r.users.Employees(p.Context)
}

func (r *Resolver) parkingStats(p graphql.ResolveParams) (interface{}, error) {
	return r.stats.CurrentStats(p.Context)
}

func (r *Resolver) statsLogsByPeriod(p graphql.ResolveParams) (interface{}, error) {
	period, _ := p.Args["period"].(string)
	return r.sessions.StatsByPeriod(p.Context, domain.Period(period))
}

// ── Mutations ─────────────────────────────────────────────────────────────────

func (r *Resolver) registerUser(p graphql.ResolveParams) (interface{}, error) {
	in, _ := p.Args["input"].(map[string]interface{})
	input := ports.RegisterInput{
		FullName:    argString(in, "fullName"),
		Email:       argString(in, "email"),
		Password:    argString(in, "password"),
		Role:        argString(in, "role"),
		FaceImages:  argStrings(in, "faceImages"),
		PlateImage:  argString(in, "plateImage"),
		VehicleType: argString(in, "vehicleType"),
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	return r.users.Register(p.Context, input)
}

func (r *Resolver) loginUser(p graphql.ResolveParams) (interface{}, error) {
	email, _ := p.Args["email"].(string)
	password, _ := p.Args["password"].(string)

	token, user, err := r.users.Login(p.Context, email, password)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"token": token, "user": user}, nil
}

func (r *Resolver) logEntry(p graphql.ResolveParams) (interface{}, error) {
	start := time.Now()
	input := ports.LogEntryInput{
		FaceImages:  argStrings(p.Args, "faceImages"),
		PlateImage:  argString(p.Args, "plateImage"),
		VehicleType: argString(p.Args, "vehicleType"),
	}

	session, err := r.sessions.LogEntry(p.Context, input)
	metrics.GateOperationDuration.WithLabelValues("entry").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GateErrorsTotal.WithLabelValues("entry", errorReason(err)).Inc()
		return nil, err
	}
	metrics.EntriesTotal.WithLabelValues(sessionRole(session), vehicleLabel(session.VehicleType)).Inc()
	return session, nil
}

func (r *Resolver) logExit(p graphql.ResolveParams) (interface{}, error) {
	start := time.Now()
	input := ports.LogExitInput{
		FaceImage:  argString(p.Args, "faceImage"),
		PlateImage: argString(p.Args, "plateImage"),
	}

	session, err := r.sessions.LogExit(p.Context, input)
	metrics.GateOperationDuration.WithLabelValues("exit").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GateErrorsTotal.WithLabelValues("exit", errorReason(err)).Inc()
		return nil, err
	}
	metrics.ExitsTotal.WithLabelValues(sessionRole(session), vehicleLabel(session.VehicleType)).Inc()
	return session, nil
}

func (r *Resolver) updateUser(p graphql.ResolveParams) (interface{}, error) {
	if err := requireAdmin(p.Context); err != nil {
		return nil, err
	}

	id, _ := p.Args["id"].(string)
	in, _ := p.Args["input"].(map[string]interface{})
	input := ports.UpdateUserInput{
		FullName: argOptString(in, "fullName"),
		Email:    argOptString(in, "email"),
		Password: argOptString(in, "password"),
		Role:     argOptString(in, "role"),
	}
	if _, ok := in["licensePlates"]; ok {
		input.LicensePlates = argStrings(in, "licensePlates")
	}
	return r.users.Update(p.Context, id, input)
}

func (r *Resolver) deleteUser(p graphql.ResolveParams) (interface{}, error) {
	if err := requireAdmin(p.Context); err != nil {
		return nil, err
	}

	id, _ := p.Args["id"].(string)
	if err := r.users.Delete(p.Context, id); err != nil {
		return nil, err
	}
	return true, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func argString(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func argOptString(args map[string]interface{}, key string) *string {
	if v, ok := args[key].(string); ok {
		return &v
	}
	return nil
}

func argStrings(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func sessionRole(s *domain.ParkingSession) string {
	if s.User != nil {
		return string(s.User.Role)
	}
	return "unknown"
}

func vehicleLabel(vt domain.VehicleType) string {
	if vt.IsValid() {
		return string(vt)
	}
	return "unknown"
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrRecognitionFailed):
		return "recognition"
	case errors.Is(err, domain.ErrDuplicateEntry):
		return "duplicate"
	case errors.Is(err, domain.ErrVerificationFailed):
		return "verification"
	default:
		return "internal"
	}
}
