package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"devfolio/internal/common"
	"devfolio/internal/dbx"
	"devfolio/internal/server/models"
	connectionsrepo "devfolio/internal/server/repositories/connections"
	conversationsrepo "devfolio/internal/server/repositories/conversations"
	filesrepo "devfolio/internal/server/repositories/files"
	messagesrepo "devfolio/internal/server/repositories/messages"
	portfoliorepo "devfolio/internal/server/repositories/portfolio"
	refreshtokensrepo "devfolio/internal/server/repositories/refreshtokens"
	roadmapsrepo "devfolio/internal/server/repositories/roadmaps"
	usersrepo "devfolio/internal/server/repositories/users"
)

// In-memory fakes. They honor the same uniqueness rules the schema enforces,
// so service tests exercise the real conflict paths.

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

// --- users ---

type fakeUsersRepo struct {
	nextID int64
	byID   map[int64]*models.User
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[int64]*models.User{}}
}

func (f *fakeUsersRepo) add(u *models.User) *models.User {
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	for _, existing := range f.byID {
		if u.Username != nil && existing.Username != nil && *existing.Username == *u.Username {
			return nil, common.ErrConflict
		}
		if u.Provider != nil && existing.Provider != nil &&
			*existing.Provider == *u.Provider && *existing.ProviderID == *u.ProviderID {
			return nil, common.ErrConflict
		}
	}
	cp := *u
	return f.add(&cp), nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Username != nil && *u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) GetByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Provider != nil && *u.Provider == provider && *u.ProviderID == providerID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) UpdateProfile(ctx context.Context, u *models.User) error {
	existing, ok := f.byID[u.ID]
	if !ok {
		return common.ErrNotFound
	}
	existing.FirstName = u.FirstName
	existing.LastName = u.LastName
	return nil
}

func (f *fakeUsersRepo) SetActive(ctx context.Context, id int64, active bool) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	u.Active = active
	return nil
}

func (f *fakeUsersRepo) SetRole(ctx context.Context, id int64, role string) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeUsersRepo) Search(ctx context.Context, flt usersrepo.Filter) ([]*models.User, error) {
	var out []*models.User
	for _, u := range f.byID {
		if flt.Role != nil && u.Role != *flt.Role {
			continue
		}
		if flt.Active != nil && u.Active != *flt.Active {
			continue
		}
		if flt.Name != nil {
			needle := strings.ToLower(*flt.Name)
			if !strings.Contains(strings.ToLower(u.FirstName), needle) &&
				!strings.Contains(strings.ToLower(u.LastName), needle) {
				continue
			}
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- refresh tokens ---

type fakeRefreshRepo struct {
	byToken   map[string]*models.RefreshToken
	createErr error
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{byToken: map[string]*models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID int64, token string, validity time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.byToken[token] = &models.RefreshToken{
		UserID:  userID,
		Token:   token,
		Expires: time.Now().Add(validity),
	}
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := f.byToken[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	return rt, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	delete(f.byToken, token)
	return nil
}

// --- conversations ---

type fakeConversationsRepo struct {
	nextID int64
	byID   map[int64]*models.Conversation
}

func newFakeConversationsRepo() *fakeConversationsRepo {
	return &fakeConversationsRepo{byID: map[int64]*models.Conversation{}}
}

func (f *fakeConversationsRepo) GetOrCreate(ctx context.Context, a, b int64) (*models.Conversation, error) {
	if a == b {
		return nil, common.ErrValidation
	}
	a, b = models.NormalizePair(a, b)
	for _, c := range f.byID {
		if c.UserAID == a && c.UserBID == b {
			cp := *c
			return &cp, nil
		}
	}
	f.nextID++
	c := &models.Conversation{ID: f.nextID, UserAID: a, UserBID: b, CreatedAt: time.Now()}
	f.byID[c.ID] = c
	cp := *c
	return &cp, nil
}

func (f *fakeConversationsRepo) GetByID(ctx context.Context, id int64) (*models.Conversation, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeConversationsRepo) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Conversation, error) {
	var out []*models.Conversation
	for _, c := range f.byID {
		if c.HasParticipant(userID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (f *fakeConversationsRepo) TouchLastMessage(ctx context.Context, id int64, at time.Time) error {
	c, ok := f.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	c.LastMessageAt = at
	return nil
}

// --- messages ---

type fakeMessagesRepo struct {
	nextID int64
	msgs   []*models.Message
}

func newFakeMessagesRepo() *fakeMessagesRepo { return &fakeMessagesRepo{} }

func (f *fakeMessagesRepo) Create(ctx context.Context, m *models.Message) (*models.Message, error) {
	f.nextID++
	cp := *m
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	f.msgs = append(f.msgs, &cp)
	out := cp
	return &out, nil
}

func (f *fakeMessagesRepo) ListByConversation(ctx context.Context, conversationID int64, limit, offset int) ([]*models.Message, error) {
	var out []*models.Message
	for i := len(f.msgs) - 1; i >= 0; i-- {
		if f.msgs[i].ConversationID == conversationID {
			cp := *f.msgs[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeMessagesRepo) MarkRead(ctx context.Context, conversationID, readerID int64, ids []int64) ([]int64, error) {
	wanted := map[int64]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	var flipped []int64
	for _, m := range f.msgs {
		if m.ConversationID != conversationID || m.SenderID == readerID || m.Read {
			continue
		}
		if len(ids) > 0 && !wanted[m.ID] {
			continue
		}
		m.Read = true
		flipped = append(flipped, m.ID)
	}
	return flipped, nil
}

func (f *fakeMessagesRepo) UnreadCount(ctx context.Context, conversationID, userID int64) (int, error) {
	n := 0
	for _, m := range f.msgs {
		if m.ConversationID == conversationID && m.SenderID != userID && !m.Read {
			n++
		}
	}
	return n, nil
}

// --- connections ---

type fakeConnectionsRepo struct {
	nextID   int64
	requests map[int64]*models.ConnectionRequest
	conns    map[[2]int64]*models.Connection
}

func newFakeConnectionsRepo() *fakeConnectionsRepo {
	return &fakeConnectionsRepo{
		requests: map[int64]*models.ConnectionRequest{},
		conns:    map[[2]int64]*models.Connection{},
	}
}

func (f *fakeConnectionsRepo) CreateRequest(ctx context.Context, senderID, receiverID int64) (*models.ConnectionRequest, error) {
	a, b := models.NormalizePair(senderID, receiverID)
	for _, r := range f.requests {
		ra, rb := models.NormalizePair(r.SenderID, r.ReceiverID)
		if ra == a && rb == b && r.Status == models.RequestPending {
			return nil, common.ErrConflict
		}
	}
	f.nextID++
	r := &models.ConnectionRequest{
		ID:         f.nextID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.RequestPending,
		CreatedAt:  time.Now(),
	}
	f.requests[r.ID] = r
	cp := *r
	return &cp, nil
}

func (f *fakeConnectionsRepo) GetRequest(ctx context.Context, id int64) (*models.ConnectionRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeConnectionsRepo) UpdateRequestStatus(ctx context.Context, id int64, status string) error {
	r, ok := f.requests[id]
	if !ok {
		return common.ErrNotFound
	}
	if r.Status != models.RequestPending {
		return common.ErrConflict
	}
	r.Status = status
	return nil
}

func (f *fakeConnectionsRepo) ListPendingForReceiver(ctx context.Context, receiverID int64) ([]*models.ConnectionRequest, error) {
	var out []*models.ConnectionRequest
	for _, r := range f.requests {
		if r.ReceiverID == receiverID && r.Status == models.RequestPending {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeConnectionsRepo) CreateConnection(ctx context.Context, a, b int64) (*models.Connection, error) {
	na, nb := models.NormalizePair(a, b)
	key := [2]int64{na, nb}
	if _, exists := f.conns[key]; exists {
		return nil, common.ErrConflict
	}
	f.nextID++
	c := &models.Connection{ID: f.nextID, UserAID: na, UserBID: nb, CreatedAt: time.Now()}
	f.conns[key] = c
	cp := *c
	return &cp, nil
}

func (f *fakeConnectionsRepo) ListConnections(ctx context.Context, userID int64) ([]*models.Connection, error) {
	var out []*models.Connection
	for _, c := range f.conns {
		if c.UserAID == userID || c.UserBID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeConnectionsRepo) Connected(ctx context.Context, a, b int64) (bool, error) {
	na, nb := models.NormalizePair(a, b)
	_, ok := f.conns[[2]int64{na, nb}]
	return ok, nil
}

// --- portfolio ---

type fakePortfolioRepo struct {
	nextID   int64
	projects map[int64]*models.Project
	skills   map[int64]*models.Skill
}

func newFakePortfolioRepo() *fakePortfolioRepo {
	return &fakePortfolioRepo{
		projects: map[int64]*models.Project{},
		skills:   map[int64]*models.Skill{},
	}
}

func (f *fakePortfolioRepo) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	f.nextID++
	cp := *p
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	f.projects[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakePortfolioRepo) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePortfolioRepo) ListProjects(ctx context.Context, userID int64) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range f.projects {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakePortfolioRepo) UpdateProject(ctx context.Context, p *models.Project) error {
	existing, ok := f.projects[p.ID]
	if !ok {
		return common.ErrNotFound
	}
	cp := *p
	cp.UserID = existing.UserID
	cp.CreatedAt = existing.CreatedAt
	f.projects[p.ID] = &cp
	return nil
}

func (f *fakePortfolioRepo) DeleteProject(ctx context.Context, id int64) error {
	if _, ok := f.projects[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.projects, id)
	return nil
}

func (f *fakePortfolioRepo) CreateSkill(ctx context.Context, s *models.Skill) (*models.Skill, error) {
	for _, existing := range f.skills {
		if existing.UserID == s.UserID && existing.Name == s.Name {
			return nil, common.ErrConflict
		}
	}
	f.nextID++
	cp := *s
	cp.ID = f.nextID
	f.skills[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakePortfolioRepo) ListSkills(ctx context.Context, userID int64) ([]*models.Skill, error) {
	var out []*models.Skill
	for _, s := range f.skills {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakePortfolioRepo) DeleteSkill(ctx context.Context, id, userID int64) error {
	s, ok := f.skills[id]
	if !ok || s.UserID != userID {
		return common.ErrNotFound
	}
	delete(f.skills, id)
	return nil
}

// --- roadmaps ---

type progressKey struct {
	userRoadmapID int64
	taskID        int64
}

type fakeRoadmapsRepo struct {
	nextID       int64
	roadmaps     map[int64]*models.SkillRoadmap
	tasks        map[int64]*models.RoadmapTask
	userRoadmaps map[int64]*models.UserRoadmap
	progress     map[progressKey]*models.UserTaskProgress
}

func newFakeRoadmapsRepo() *fakeRoadmapsRepo {
	return &fakeRoadmapsRepo{
		roadmaps:     map[int64]*models.SkillRoadmap{},
		tasks:        map[int64]*models.RoadmapTask{},
		userRoadmaps: map[int64]*models.UserRoadmap{},
		progress:     map[progressKey]*models.UserTaskProgress{},
	}
}

func (f *fakeRoadmapsRepo) CreateRoadmap(ctx context.Context, rm *models.SkillRoadmap) (*models.SkillRoadmap, error) {
	f.nextID++
	cp := *rm
	cp.ID = f.nextID
	f.roadmaps[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeRoadmapsRepo) GetRoadmap(ctx context.Context, id int64) (*models.SkillRoadmap, error) {
	rm, ok := f.roadmaps[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *rm
	return &cp, nil
}

func (f *fakeRoadmapsRepo) ListRoadmaps(ctx context.Context) ([]*models.SkillRoadmap, error) {
	var out []*models.SkillRoadmap
	for _, rm := range f.roadmaps {
		cp := *rm
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRoadmapsRepo) DeleteRoadmap(ctx context.Context, id int64) error {
	if _, ok := f.roadmaps[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.roadmaps, id)
	return nil
}

func (f *fakeRoadmapsRepo) CreateTask(ctx context.Context, t *models.RoadmapTask) (*models.RoadmapTask, error) {
	for _, existing := range f.tasks {
		if existing.RoadmapID == t.RoadmapID && existing.Position == t.Position {
			return nil, common.ErrConflict
		}
	}
	f.nextID++
	cp := *t
	cp.ID = f.nextID
	f.tasks[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeRoadmapsRepo) ListTasks(ctx context.Context, roadmapID int64) ([]*models.RoadmapTask, error) {
	var out []*models.RoadmapTask
	for _, t := range f.tasks {
		if t.RoadmapID == roadmapID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeRoadmapsRepo) CreateUserRoadmap(ctx context.Context, userID, roadmapID int64) (*models.UserRoadmap, error) {
	for _, ur := range f.userRoadmaps {
		if ur.UserID == userID && ur.RoadmapID == roadmapID {
			return nil, common.ErrConflict
		}
	}
	f.nextID++
	ur := &models.UserRoadmap{ID: f.nextID, UserID: userID, RoadmapID: roadmapID, StartedAt: time.Now()}
	f.userRoadmaps[ur.ID] = ur
	cp := *ur
	return &cp, nil
}

func (f *fakeRoadmapsRepo) GetUserRoadmap(ctx context.Context, id int64) (*models.UserRoadmap, error) {
	ur, ok := f.userRoadmaps[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *ur
	return &cp, nil
}

func (f *fakeRoadmapsRepo) ListUserRoadmaps(ctx context.Context, userID int64) ([]*models.UserRoadmap, error) {
	var out []*models.UserRoadmap
	for _, ur := range f.userRoadmaps {
		if ur.UserID == userID {
			cp := *ur
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRoadmapsRepo) CreateProgress(ctx context.Context, userRoadmapID, taskID int64) error {
	key := progressKey{userRoadmapID, taskID}
	if _, exists := f.progress[key]; exists {
		return common.ErrConflict
	}
	f.nextID++
	f.progress[key] = &models.UserTaskProgress{
		ID:            f.nextID,
		UserRoadmapID: userRoadmapID,
		TaskID:        taskID,
		Status:        models.TaskPending,
	}
	return nil
}

func (f *fakeRoadmapsRepo) ListProgress(ctx context.Context, userRoadmapID int64) ([]*models.UserTaskProgress, error) {
	var out []*models.UserTaskProgress
	for _, p := range f.progress {
		if p.UserRoadmapID == userRoadmapID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := f.tasks[out[i].TaskID], f.tasks[out[j].TaskID]
		if pi == nil || pj == nil {
			return out[i].TaskID < out[j].TaskID
		}
		return pi.Position < pj.Position
	})
	return out, nil
}

func (f *fakeRoadmapsRepo) UpdateProgressStatus(ctx context.Context, userRoadmapID, taskID int64, status string) error {
	p, ok := f.progress[progressKey{userRoadmapID, taskID}]
	if !ok {
		return common.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRoadmapsRepo) CountProgress(ctx context.Context, userRoadmapID int64) (int, int, error) {
	completed, total := 0, 0
	for _, p := range f.progress {
		if p.UserRoadmapID != userRoadmapID {
			continue
		}
		total++
		if p.Status == models.TaskCompleted {
			completed++
		}
	}
	return completed, total, nil
}

// --- files ---

type fakeFilesRepo struct {
	nextID int64
	byID   map[int64]*models.FileObject
}

func newFakeFilesRepo() *fakeFilesRepo {
	return &fakeFilesRepo{byID: map[int64]*models.FileObject{}}
}

func (f *fakeFilesRepo) Create(ctx context.Context, fo *models.FileObject) (*models.FileObject, error) {
	for _, existing := range f.byID {
		if existing.StorageKey == fo.StorageKey {
			return nil, common.ErrConflict
		}
	}
	f.nextID++
	cp := *fo
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	f.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeFilesRepo) GetByID(ctx context.Context, id int64) (*models.FileObject, error) {
	fo, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *fo
	return &cp, nil
}

func (f *fakeFilesRepo) ListByOwner(ctx context.Context, ownerID int64) ([]*models.FileObject, error) {
	var out []*models.FileObject
	for _, fo := range f.byID {
		if fo.OwnerID == ownerID {
			cp := *fo
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeFilesRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// --- manager ---

type fakeRepoManager struct {
	users         *fakeUsersRepo
	refreshTokens *fakeRefreshRepo
	conversations *fakeConversationsRepo
	messages      *fakeMessagesRepo
	connections   *fakeConnectionsRepo
	portfolio     *fakePortfolioRepo
	roadmaps      *fakeRoadmapsRepo
	files         *fakeFilesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:         newFakeUsersRepo(),
		refreshTokens: newFakeRefreshRepo(),
		conversations: newFakeConversationsRepo(),
		messages:      newFakeMessagesRepo(),
		connections:   newFakeConnectionsRepo(),
		portfolio:     newFakePortfolioRepo(),
		roadmaps:      newFakeRoadmapsRepo(),
		files:         newFakeFilesRepo(),
	}
}

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                 { return m.users }
func (m *fakeRepoManager) Portfolio(db dbx.DBTX) portfoliorepo.Repository         { return m.portfolio }
func (m *fakeRepoManager) Connections(db dbx.DBTX) connectionsrepo.Repository     { return m.connections }
func (m *fakeRepoManager) Conversations(db dbx.DBTX) conversationsrepo.Repository { return m.conversations }
func (m *fakeRepoManager) Messages(db dbx.DBTX) messagesrepo.Repository           { return m.messages }
func (m *fakeRepoManager) Roadmaps(db dbx.DBTX) roadmapsrepo.Repository           { return m.roadmaps }
func (m *fakeRepoManager) Files(db dbx.DBTX) filesrepo.Repository                 { return m.files }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository {
	return m.refreshTokens
}
func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
