package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/iliyamo/skillgraph/internal/model"
	"github.com/iliyamo/skillgraph/internal/repository"
	"github.com/iliyamo/skillgraph/internal/service"
)

// Resolver is the root of both Query and Mutation.  Resolvers only
// translate arguments and results; every rule lives in the services.
type Resolver struct {
	auth   *service.AuthService
	skills *service.SkillService
}

// Users

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	u, err := r.auth.Me(ctx)
	if err != nil {
		return nil, err
	}
	return &userResolver{u}, nil
}

func (r *Resolver) FindUserByEmail(ctx context.Context, args struct{ Email string }) (*userResolver, error) {
	u, err := r.auth.FindUserByEmail(ctx, args.Email)
	if err != nil || u == nil {
		return nil, err
	}
	return &userResolver{u}, nil
}

func (r *Resolver) GetAllUsers(ctx context.Context) ([]*userResolver, error) {
	users, err := r.auth.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*userResolver, len(users))
	for i, u := range users {
		out[i] = &userResolver{u}
	}
	return out, nil
}

func (r *Resolver) GetUser(ctx context.Context, args struct{ ID graphql.ID }) (*userResolver, error) {
	u, err := r.auth.GetUser(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return &userResolver{u}, nil
}

type signupArgs struct {
	Input struct {
		Name        string
		Email       Email
		Password    string
		PhoneNumber *PhoneNumber
		Metadata    *JSON
	}
}

func (r *Resolver) Signup(ctx context.Context, args signupArgs) (*authPayloadResolver, error) {
	in := service.SignupInput{
		Name:     args.Input.Name,
		Email:    string(args.Input.Email),
		Password: args.Input.Password,
	}
	if args.Input.PhoneNumber != nil {
		p := string(*args.Input.PhoneNumber)
		in.PhoneNumber = &p
	}
	if args.Input.Metadata != nil {
		in.Metadata = args.Input.Metadata.Value
	}
	p, err := r.auth.Signup(ctx, in)
	if err != nil {
		return nil, err
	}
	return &authPayloadResolver{p}, nil
}

type loginArgs struct {
	Input struct {
		Email    string
		Password string
	}
}

func (r *Resolver) Login(ctx context.Context, args loginArgs) (*authPayloadResolver, error) {
	p, err := r.auth.Login(ctx, args.Input.Email, args.Input.Password)
	if err != nil {
		return nil, err
	}
	return &authPayloadResolver{p}, nil
}

func (r *Resolver) DeleteUser(ctx context.Context, args struct{ ID graphql.ID }) (*userResolver, error) {
	u, err := r.auth.DeleteUser(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return &userResolver{u}, nil
}

// Skills

func (r *Resolver) GetAllSkills(ctx context.Context) ([]*skillResolver, error) {
	return r.listSkills(ctx, service.SkillListInput{})
}

func (r *Resolver) GetSkill(ctx context.Context, args struct{ ID graphql.ID }) (*skillResolver, error) {
	s, err := r.skills.GetSkill(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return r.skill(s), nil
}

func (r *Resolver) GetSkillByStatus(ctx context.Context, args struct{ Status string }) ([]*skillResolver, error) {
	st := model.SkillStatus(args.Status)
	return r.listSkills(ctx, service.SkillListInput{Status: &st})
}

// GetSkillsSorted resolves getSkillsSorted.  Both arguments carry schema
// defaults, so they are never null.
func (r *Resolver) GetSkillsSorted(ctx context.Context, args struct {
	By        string
	Direction string
}) ([]*skillResolver, error) {
	return r.listSkills(ctx, service.SkillListInput{SortBy: sortField(&args.By), Desc: descending(&args.Direction)})
}

func (r *Resolver) GetAllSkillsPaginated(ctx context.Context, args struct {
	Limit  int32
	Offset int32
}) ([]*skillResolver, error) {
	return r.listSkills(ctx, service.SkillListInput{Limit: toInt(&args.Limit), Offset: toInt(&args.Offset)})
}

func (r *Resolver) Skills(ctx context.Context, args struct {
	Status    *string
	SortBy    *string
	Direction *string
	Limit     *int32
	Offset    *int32
}) ([]*skillResolver, error) {
	in := service.SkillListInput{
		SortBy: sortField(args.SortBy),
		Desc:   descending(args.Direction),
		Limit:  toInt(args.Limit),
		Offset: toInt(args.Offset),
	}
	if args.Status != nil {
		st := model.SkillStatus(*args.Status)
		in.Status = &st
	}
	return r.listSkills(ctx, in)
}

func (r *Resolver) AddSkill(ctx context.Context, args struct {
	Input struct {
		Title  string
		Status *string
	}
}) (*skillResolver, error) {
	s, err := r.skills.CreateSkill(ctx, args.Input.Title, toStatus(args.Input.Status))
	if err != nil {
		return nil, err
	}
	return r.skill(s), nil
}

func (r *Resolver) UpdateSkill(ctx context.Context, args struct {
	ID     graphql.ID
	Title  *string
	Status *string
}) (*skillResolver, error) {
	s, err := r.skills.UpdateSkill(ctx, string(args.ID), args.Title, toStatus(args.Status))
	if err != nil {
		return nil, err
	}
	return r.skill(s), nil
}

func (r *Resolver) DeleteSkill(ctx context.Context, args struct{ ID graphql.ID }) (*skillResolver, error) {
	s, err := r.skills.DeleteSkill(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	// the modules went with it
	return &skillResolver{s: s, svc: r.skills, modules: []*model.Module{}}, nil
}

type newModule struct {
	Title       string
	Description *string
}

func (r *Resolver) AddSkillWithModules(ctx context.Context, args struct {
	Input struct {
		Title   string
		Status  *string
		Modules []newModule
	}
}) (*skillResolver, error) {
	mods := make([]service.ModuleInput, len(args.Input.Modules))
	for i, m := range args.Input.Modules {
		mods[i] = service.ModuleInput{Title: m.Title, Description: m.Description}
	}
	s, ms, err := r.skills.CreateSkillWithModules(ctx, args.Input.Title, toStatus(args.Input.Status), mods)
	if err != nil {
		return nil, err
	}
	return &skillResolver{s: s, svc: r.skills, modules: ms}, nil
}

// Modules

func (r *Resolver) GetAllModules(ctx context.Context) ([]*moduleResolver, error) {
	ms, err := r.skills.AllModules(ctx)
	if err != nil {
		return nil, err
	}
	return r.moduleList(ms), nil
}

func (r *Resolver) GetModulesBySkill(ctx context.Context, args struct{ SkillID graphql.ID }) ([]*moduleResolver, error) {
	ms, err := r.skills.ModulesBySkill(ctx, string(args.SkillID))
	if err != nil {
		return nil, err
	}
	return r.moduleList(ms), nil
}

func (r *Resolver) AddModule(ctx context.Context, args struct {
	Input struct {
		SkillID     graphql.ID
		Title       string
		Description *string
	}
}) (*moduleResolver, error) {
	m, err := r.skills.AddModule(ctx, service.ModuleInput{
		SkillID:     string(args.Input.SkillID),
		Title:       args.Input.Title,
		Description: args.Input.Description,
	})
	if err != nil {
		return nil, err
	}
	return &moduleResolver{m: m, svc: r.skills}, nil
}

func (r *Resolver) listSkills(ctx context.Context, in service.SkillListInput) ([]*skillResolver, error) {
	list, err := r.skills.ListSkills(ctx, in)
	if err != nil {
		return nil, err
	}
	out := make([]*skillResolver, len(list))
	for i, s := range list {
		out[i] = r.skill(s)
	}
	return out, nil
}

func (r *Resolver) skill(s *model.Skill) *skillResolver {
	return &skillResolver{s: s, svc: r.skills}
}

func (r *Resolver) moduleList(ms []*model.Module) []*moduleResolver {
	out := make([]*moduleResolver, len(ms))
	for i, m := range ms {
		out[i] = &moduleResolver{m: m, svc: r.skills}
	}
	return out
}

func sortField(s *string) repository.SkillSort {
	if s == nil {
		return ""
	}
	return repository.SkillSort(*s)
}

func descending(dir *string) bool {
	return dir != nil && *dir == "DESC"
}

func toInt(n *int32) *int {
	if n == nil {
		return nil
	}
	v := int(*n)
	return &v
}

func toStatus(s *string) *model.SkillStatus {
	if s == nil {
		return nil
	}
	st := model.SkillStatus(*s)
	return &st
}
