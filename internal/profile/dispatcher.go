package profile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/leighmacdonald/steamid/v4/steamid"
	"golang.org/x/exp/constraints"
	"golang.org/x/sync/errgroup"
)

var ErrDispatcherClosed = errors.New("dispatcher closed")

// Response carries the outcome of one enrichment request. The steam id is
// always set so callers can correlate out of order responses. Exactly one
// of Profile and Err is set.
type Response struct {
	SteamID steamid.SteamID
	Profile *Profile
	Err     error
}

// Dispatcher drains an intake queue of steam ids and fetches each one's
// profile bundle on its own goroutine, emitting one Response per request
// in completion order. It never retries, callers wanting a retry simply
// resubmit the id.
type Dispatcher struct {
	client    *Client
	requests  chan steamid.SteamID
	responses chan Response
	// limit caps concurrently running fetch units. 0 leaves them unbounded.
	limit int
}

func NewDispatcher(client *Client, maxInFlight int) *Dispatcher {
	return &Dispatcher{
		client:    client,
		requests:  make(chan steamid.SteamID, 64),
		responses: make(chan Response, 64),
		limit:     maxInFlight,
	}
}

// Submit queues one id for enrichment. Returns ErrDispatcherClosed when
// the run context is already cancelled.
func (d *Dispatcher) Submit(ctx context.Context, steamID steamid.SteamID) error {
	select {
	case d.requests <- steamID:
		return nil
	case <-ctx.Done():
		return ErrDispatcherClosed
	}
}

// Poll performs a non blocking read of the response queue.
func (d *Dispatcher) Poll() (Response, bool) {
	select {
	case response, ok := <-d.responses:
		return response, ok
	default:
		return Response{}, false
	}
}

// Responses exposes the response queue for callers that prefer to block.
func (d *Dispatcher) Responses() <-chan Response {
	return d.responses
}

// Run is the dispatch loop. It exits when the context is cancelled,
// letting any in flight units finish and deliver their responses first.
func (d *Dispatcher) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	if d.limit > 0 {
		group.SetLimit(clamp(d.limit, 1, 512))
	}

	for {
		select {
		case steamID := <-d.requests:
			group.Go(func() error {
				started := time.Now()
				// Once a unit starts it runs to completion, shutdown must
				// not abort its outbound calls midway. Request timeouts
				// still come from the http client.
				response := d.fetch(context.WithoutCancel(groupCtx), steamID)

				select {
				case d.responses <- response:
					slog.Debug("Delivered profile response", slog.String("steam_id", steamID.String()),
						slog.Duration("elapsed", time.Since(started)))
				case <-groupCtx.Done():
					// The queue stays open until every unit returns, so a
					// finished unit still hands over its response when
					// there is room.
					select {
					case d.responses <- response:
					default:
					}
				}

				return nil
			})
		case <-ctx.Done():
			if errWait := group.Wait(); errWait != nil {
				slog.Error("Fetch unit failed", slog.String("error", errWait.Error()))
			}
			close(d.responses)

			return ctx.Err()
		}
	}
}

// fetch performs the fixed fetch sequence for one id. Summary and ban
// failures fail the whole request, the remaining steps degrade to missing
// data.
func (d *Dispatcher) fetch(ctx context.Context, steamID steamid.SteamID) Response {
	summary, errSummary := d.client.Summary(ctx, steamID)
	if errSummary != nil {
		return Response{SteamID: steamID, Err: errSummary}
	}

	bans, errBans := d.client.Bans(ctx, steamID)
	if errBans != nil {
		return Response{SteamID: steamID, Err: errBans}
	}

	result := &Profile{Summary: summary, Bans: bans, FetchedOn: time.Now()}

	if summary.VisibilityState == VisibilityPublic {
		friends, errFriends := d.client.Friends(ctx, steamID)
		if errFriends != nil {
			slog.Error("Failed to fetch friends list", slog.String("steam_id", steamID.String()),
				slog.String("error", errFriends.Error()))
		} else {
			result.Friends = friends
		}
	}

	if d.client.options().SteamHistoryKey != "" {
		sourceBans, errBansSH := d.client.SourceBans(ctx, steamID)
		if errBansSH != nil {
			slog.Warn("Error while getting steamhistory bans", slog.String("steam_id", steamID.String()),
				slog.String("error", errBansSH.Error()))
		} else {
			result.SourceBans = sourceBans
		}
	}

	avatar, errAvatar := d.client.Avatar(ctx, steamID, summary.AvatarMedium)
	if errAvatar != nil {
		slog.Debug("Failed to fetch avatar", slog.String("steam_id", steamID.String()),
			slog.String("error", errAvatar.Error()))
	} else {
		result.Avatar = avatar
	}

	return Response{SteamID: steamID, Profile: result}
}

type number interface {
	constraints.Integer | constraints.Float
}

func clamp[T number](v, low, high T) T {
	if high < low {
		low, high = high, low
	}

	return min(high, max(low, v))
}
