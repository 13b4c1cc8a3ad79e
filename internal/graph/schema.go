// Package graph exposes the auth flow and the skill catalogue over GraphQL.
package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/iliyamo/skillgraph/internal/logging"
	"github.com/iliyamo/skillgraph/internal/service"
)

// Schema is the SDL served at /graphql.
const Schema = `
schema {
	query: Query
	mutation: Mutation
}

scalar Email
scalar PhoneNumber
scalar Time
scalar JSON

enum SkillStatus {
	PLANNED
	IN_PROGRESS
	DONE
}

enum SkillSortField {
	ID
	TITLE
	STATUS
	CREATED_AT
}

enum SortDirection {
	ASC
	DESC
}

type User {
	id: ID!
	name: String!
	email: Email!
	phoneNumber: PhoneNumber
	metadata: JSON
	createdAt: Time!
}

type AuthPayload {
	token: String!
	expiresAt: Time!
	user: User!
}

type Skill {
	id: ID!
	title: String!
	status: SkillStatus!
	createdAt: Time!
	modules: [Module!]!
}

type Module {
	id: ID!
	title: String!
	description: String
	skillId: ID!
	skill: Skill!
}

input SignupInput {
	name: String!
	email: Email!
	password: String!
	phoneNumber: PhoneNumber
	metadata: JSON
}

input LoginInput {
	email: String!
	password: String!
}

input SkillInput {
	title: String!
	status: SkillStatus
}

input ModuleInput {
	skillId: ID!
	title: String!
	description: String
}

input NewModuleInput {
	title: String!
	description: String
}

input SkillWithModulesInput {
	title: String!
	status: SkillStatus
	modules: [NewModuleInput!]!
}

type Query {
	me: User
	findUserByEmail(email: String!): User
	getAllUsers: [User!]!
	getUser(id: ID!): User
	getAllSkills: [Skill!]!
	getSkill(id: ID!): Skill
	getSkillByStatus(status: SkillStatus!): [Skill!]!
	getSkillsSorted(by: SkillSortField = TITLE, direction: SortDirection = ASC): [Skill!]!
	getAllSkillsPaginated(limit: Int = 10, offset: Int = 0): [Skill!]!
	skills(status: SkillStatus, sortBy: SkillSortField, direction: SortDirection, limit: Int, offset: Int): [Skill!]!
	getAllModules: [Module!]!
	getModulesBySkill(skillId: ID!): [Module!]!
}

type Mutation {
	signup(input: SignupInput!): AuthPayload!
	login(input: LoginInput!): AuthPayload!
	deleteUser(id: ID!): User!
	addSkill(input: SkillInput!): Skill!
	updateSkill(id: ID!, title: String, status: SkillStatus): Skill!
	deleteSkill(id: ID!): Skill!
	addModule(input: ModuleInput!): Module!
	addSkillWithModules(input: SkillWithModulesInput!): Skill!
}
`

// maxDepth bounds query nesting; Skill.modules.skill.modules... is otherwise unbounded.
const maxDepth = 8

// NewSchema parses Schema against a resolver over the given services.
func NewSchema(auth *service.AuthService, skills *service.SkillService, log logging.Logger) (*graphql.Schema, error) {
	r := &Resolver{auth: auth, skills: skills}
	return graphql.ParseSchema(Schema, r,
		graphql.MaxDepth(maxDepth),
		graphql.Logger(panicLogger{log: log.With("module", "graphql")}),
	)
}

// panicLogger routes recovered resolver panics into the application log.
type panicLogger struct {
	log logging.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value interface{}) {
	l.log.Error(ctx, "graphql resolver panic", "panic", value)
}
