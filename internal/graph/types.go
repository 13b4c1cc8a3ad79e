package graph

import (
	"context"
	"strconv"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/iliyamo/skillgraph/internal/model"
	"github.com/iliyamo/skillgraph/internal/service"
)

// userResolver renders a User.  The password hash has no field here.
type userResolver struct {
	u *model.User
}

func (r *userResolver) ID() graphql.ID { return graphql.ID(r.u.ID) }
func (r *userResolver) Name() string { return r.u.Name }
func (r *userResolver) Email() Email { return Email(r.u.Email) }
func (r *userResolver) CreatedAt() graphql.Time { return graphql.Time{Time: r.u.CreatedAt} }

func (r *userResolver) Metadata() *JSON {
	if r.u.Metadata == nil {
		return nil
	}
	return &JSON{Value: r.u.Metadata}
}

func (r *userResolver) PhoneNumber() *PhoneNumber {
	if r.u.PhoneNumber == nil {
		return nil
	}
	p := PhoneNumber(*r.u.PhoneNumber)
	return &p
}

type authPayloadResolver struct {
	p *service.AuthPayload
}

func (r *authPayloadResolver) Token() string { return r.p.Token }
func (r *authPayloadResolver) ExpiresAt() graphql.Time { return graphql.Time{Time: r.p.ExpiresAt} }
func (r *authPayloadResolver) User() *userResolver { return &userResolver{r.p.User} }

// skillResolver renders a Skill.  modules, when non-nil, is returned as is
// instead of being loaded.
type skillResolver struct {
	s       *model.Skill
	svc     *service.SkillService
	modules []*model.Module
}

func (r *skillResolver) ID() graphql.ID { return formatID(r.s.ID) }
func (r *skillResolver) Title() string { return r.s.Title }
func (r *skillResolver) Status() string { return string(r.s.Status) }
func (r *skillResolver) CreatedAt() graphql.Time { return graphql.Time{Time: r.s.CreatedAt} }

func (r *skillResolver) Modules(ctx context.Context) ([]*moduleResolver, error) {
	ms := r.modules
	if ms == nil {
		var err error
		if ms, err = r.svc.ModulesOf(ctx, r.s.ID); err != nil {
			return nil, err
		}
	}
	out := make([]*moduleResolver, len(ms))
	for i, m := range ms {
		out[i] = &moduleResolver{m: m, svc: r.svc}
	}
	return out, nil
}

type moduleResolver struct {
	m   *model.Module
	svc *service.SkillService
}

func (r *moduleResolver) ID() graphql.ID { return formatID(r.m.ID) }
func (r *moduleResolver) Title() string { return r.m.Title }
func (r *moduleResolver) Description() *string { return r.m.Description }
func (r *moduleResolver) SkillID() graphql.ID { return formatID(r.m.SkillID) }

func (r *moduleResolver) Skill(ctx context.Context) (*skillResolver, error) {
	s, err := r.svc.SkillOf(ctx, r.m.SkillID)
	if err != nil {
		return nil, err
	}
	return &skillResolver{s: s, svc: r.svc}, nil
}

func formatID(id uint64) graphql.ID {
	return graphql.ID(strconv.FormatUint(id, 10))
}
