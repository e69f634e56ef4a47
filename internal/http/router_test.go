package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"polls-service/internal/domain/question"
	"polls-service/internal/domain/user"
	"polls-service/internal/domain/vote"
	jwtpkg "polls-service/internal/platform/jwt"
	"polls-service/internal/worker"
)

type testUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*user.User
	byName map[string]int64
	nextID int64
}

func newTestUserRepo() *testUserRepo {
	return &testUserRepo{
		users:  make(map[int64]*user.User),
		byName: make(map[string]int64),
		nextID: 1,
	}
}

func (r *testUserRepo) seed(u *user.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == 0 {
		u.ID = r.nextID
		r.nextID++
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	copyUser := *u
	r.users[u.ID] = &copyUser
	r.byName[u.Username] = u.ID
}

func (r *testUserRepo) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[u.Username]; ok {
		return user.ErrUsernameTaken
	}
	u.ID = r.nextID
	r.nextID++
	u.CreatedAt = time.Now()
	copyUser := *u
	r.users[u.ID] = &copyUser
	r.byName[u.Username] = u.ID
	return nil
}

func (r *testUserRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byName[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copyUser := *r.users[id]
	return &copyUser, nil
}

func (r *testUserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copyUser := *u
	return &copyUser, nil
}

type testQuestionRepo struct {
	mu           sync.Mutex
	questions    map[int64]*question.Question
	choices      map[int64][]question.Choice
	nextID       int64
	nextChoiceID int64
	createErr    error
}

func newTestQuestionRepo() *testQuestionRepo {
	return &testQuestionRepo{
		questions:    make(map[int64]*question.Question),
		choices:      make(map[int64][]question.Choice),
		nextID:       1,
		nextChoiceID: 1,
	}
}

func (r *testQuestionRepo) Create(ctx context.Context, q *question.Question, choices []question.Choice) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return 0, r.createErr
	}
	q.ID = r.nextID
	r.nextID++
	q.CreatedAt = time.Now()
	copyQ := *q
	r.questions[q.ID] = &copyQ

	cloned := make([]question.Choice, len(choices))
	for i := range choices {
		choices[i].ID = r.nextChoiceID
		r.nextChoiceID++
		choices[i].QuestionID = q.ID
		cloned[i] = choices[i]
	}
	r.choices[q.ID] = cloned
	return q.ID, nil
}

func (r *testQuestionRepo) GetByID(ctx context.Context, id int64) (*question.Question, []question.Choice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[id]
	if !ok {
		return nil, nil, question.ErrNotFound
	}
	copyQ := *q
	copied := make([]question.Choice, len(r.choices[id]))
	copy(copied, r.choices[id])
	return &copyQ, copied, nil
}

func (r *testQuestionRepo) ListPublished(ctx context.Context, now time.Time, limit int) ([]question.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := []question.Question{}
	for _, q := range r.questions {
		if q.IsPublished(now) {
			res = append(res, *q)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].PubDate.After(res[j].PubDate) })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (r *testQuestionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.questions)
}

func (r *testQuestionRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[id]; !ok {
		return question.ErrNotFound
	}
	delete(r.questions, id)
	delete(r.choices, id)
	return nil
}

type voteKey struct {
	userID     int64
	questionID int64
}

type testVoteRepo struct {
	mu     sync.Mutex
	votes  map[voteKey]*vote.Vote
	nextID int64
}

func newTestVoteRepo() *testVoteRepo {
	return &testVoteRepo{votes: make(map[voteKey]*vote.Vote), nextID: 1}
}

func (r *testVoteRepo) Upsert(ctx context.Context, v *vote.Vote) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := voteKey{userID: v.UserID, questionID: v.QuestionID}
	if existing, ok := r.votes[key]; ok {
		existing.ChoiceID = v.ChoiceID
		existing.UpdatedAt = time.Now()
		*v = *existing
		return true, nil
	}
	v.ID = r.nextID
	r.nextID++
	v.CreatedAt = time.Now()
	v.UpdatedAt = v.CreatedAt
	copyVote := *v
	r.votes[key] = &copyVote
	return false, nil
}

func (r *testVoteRepo) FindByUserAndQuestion(ctx context.Context, userID, questionID int64) (*vote.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.votes[voteKey{userID: userID, questionID: questionID}]
	if !ok {
		return nil, vote.ErrNoVote
	}
	copyVote := *v
	return &copyVote, nil
}

func (r *testVoteRepo) CountByQuestion(ctx context.Context, questionID int64) (map[int64]int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make(map[int64]int64)
	var total int64
	for key, v := range r.votes {
		if key.questionID == questionID {
			res[v.ChoiceID]++
			total++
		}
	}
	return res, total, nil
}

func (r *testVoteRepo) rowCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.votes)
}

func setupServer(t *testing.T) (*httptest.Server, *testUserRepo, *testQuestionRepo, *testVoteRepo, func()) {
	t.Helper()
	userRepo := newTestUserRepo()
	questionRepo := newTestQuestionRepo()
	voteRepo := newTestVoteRepo()

	userSvc := user.NewService(userRepo)
	questionSvc := question.NewService(questionRepo)
	voteSvc := vote.NewService(voteRepo, questionRepo)
	jwtMgr := jwtpkg.NewManager("secret", "test-issuer")
	ballotCh := make(chan worker.BallotEvent, 100)

	server := httptest.NewServer(NewRouter(userSvc, questionSvc, voteSvc, jwtMgr, time.Hour, ballotCh, nil))
	cleanup := func() {
		server.Close()
		close(ballotCh)
	}
	return server, userRepo, questionRepo, voteRepo, cleanup
}

func seedUserWithPassword(t *testing.T, repo *testUserRepo, username, role, password string) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	repo.seed(&user.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	})
	return repo.byName[username]
}

func seedQuestion(t *testing.T, repo *testQuestionRepo, text string, pubOffset time.Duration, endOffset *time.Duration, choiceTexts ...string) (int64, []question.Choice) {
	t.Helper()
	q := &question.Question{Text: text, PubDate: time.Now().Add(pubOffset)}
	if endOffset != nil {
		end := time.Now().Add(*endOffset)
		q.EndDate = &end
	}
	choices := make([]question.Choice, 0, len(choiceTexts))
	for _, ct := range choiceTexts {
		choices = append(choices, question.Choice{Text: ct})
	}
	id, err := repo.Create(context.Background(), q, choices)
	if err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return id, repo.choices[id]
}

func loginAndToken(t *testing.T, serverURL, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(authRequest{Username: username, Password: password})
	resp, err := http.Post(serverURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status: %d", resp.StatusCode)
	}
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatalf("token missing")
	}
	return token
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func castVote(t *testing.T, serverURL, token string, questionID, choiceID int64) *http.Response {
	t.Helper()
	return doJSON(t, http.MethodPost, serverURL+"/polls/"+itoa(questionID)+"/vote", token, voteRequest{Choice: choiceID})
}

func fetchResults(t *testing.T, serverURL string, questionID int64) resultsResponse {
	t.Helper()
	resp, err := http.Get(serverURL + "/polls/" + itoa(questionID) + "/results")
	if err != nil {
		t.Fatalf("results request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("results status: %d", resp.StatusCode)
	}
	var payload resultsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	return payload
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func decodeError(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return payload
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

func durPtr(d time.Duration) *time.Duration {
	return &d
}

func TestRootRedirectsToPolls(t *testing.T) {
	server, _, _, _, cleanup := setupServer(t)
	defer cleanup()

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get(server.URL + "/")
	if err != nil {
		t.Fatalf("get root: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMovedPermanently {
		t.Fatalf("expected 301, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/polls/" {
		t.Fatalf("expected redirect to /polls/, got %q", loc)
	}
}

func TestIndexListsPublishedQuestions(t *testing.T) {
	server, _, questionRepo, _, cleanup := setupServer(t)
	defer cleanup()

	seedQuestion(t, questionRepo, "Old open question", -days(5), nil, "yes", "no")
	seedQuestion(t, questionRepo, "Closed question", -days(10), durPtr(-days(5)), "yes", "no")
	seedQuestion(t, questionRepo, "Future question", days(5), nil, "yes", "no")

	resp, err := http.Get(server.URL + "/polls/")
	if err != nil {
		t.Fatalf("index request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var list []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode index: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 published questions, got %d", len(list))
	}
	// pub_date descending: the open question published 5 days ago comes
	// before the one published 10 days ago.
	if list[0]["text"] != "Old open question" || list[0]["status"] != "Open" {
		t.Fatalf("unexpected first entry: %+v", list[0])
	}
	if list[1]["text"] != "Closed question" || list[1]["status"] != "Closed" {
		t.Fatalf("unexpected second entry: %+v", list[1])
	}

	capped, err := http.Get(server.URL + "/polls/?limit=1")
	if err != nil {
		t.Fatalf("index with limit: %v", err)
	}
	defer capped.Body.Close()
	var cappedList []map[string]any
	if err := json.NewDecoder(capped.Body).Decode(&cappedList); err != nil {
		t.Fatalf("decode capped index: %v", err)
	}
	if len(cappedList) != 1 {
		t.Fatalf("expected 1 entry with limit=1, got %d", len(cappedList))
	}
}

func TestDetailFutureQuestionNotFound(t *testing.T) {
	server, _, questionRepo, _, cleanup := setupServer(t)
	defer cleanup()

	id, _ := seedQuestion(t, questionRepo, "Future question", days(5), nil, "yes", "no")

	resp, err := http.Get(server.URL + "/polls/" + itoa(id))
	if err != nil {
		t.Fatalf("detail request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for future question, got %d", resp.StatusCode)
	}
}

func TestDetailClosedQuestionRejected(t *testing.T) {
	server, _, questionRepo, _, cleanup := setupServer(t)
	defer cleanup()

	id, _ := seedQuestion(t, questionRepo, "Closed question", -days(10), durPtr(-days(5)), "yes", "no")

	resp, err := http.Get(server.URL + "/polls/" + itoa(id))
	if err != nil {
		t.Fatalf("detail request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for closed question, got %d", resp.StatusCode)
	}
	if payload := decodeError(t, resp); payload["error"] != "voting_closed" {
		t.Fatalf("expected voting_closed, got %+v", payload)
	}
}

func TestVoteRequiresAuth(t *testing.T) {
	server, _, questionRepo, voteRepo, cleanup := setupServer(t)
	defer cleanup()

	id, choices := seedQuestion(t, questionRepo, "Open question", -days(5), nil, "yes", "no")

	resp := castVote(t, server.URL, "", id, choices[0].ID)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	if voteRepo.rowCount() != 0 {
		t.Fatalf("unauthenticated vote must not persist")
	}
}

func TestVoteFlowAndRevote(t *testing.T) {
	server, userRepo, questionRepo, voteRepo, cleanup := setupServer(t)
	defer cleanup()

	seedUserWithPassword(t, userRepo, "alice", "user", "pass123")
	token := loginAndToken(t, server.URL, "alice", "pass123")

	id, choices := seedQuestion(t, questionRepo, "Tea or coffee?", -days(5), nil, "Tea", "Coffee")

	resp := castVote(t, server.URL, token, id, choices[0].ID)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 first vote, got %d", resp.StatusCode)
	}
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode vote response: %v", err)
	}
	msg, _ := payload["message"].(string)
	if !strings.Contains(msg, "Tea") {
		t.Fatalf("confirmation must name the choice, got %q", msg)
	}
	results, _ := payload["results"].(string)
	if results != "/polls/"+itoa(id)+"/results" {
		t.Fatalf("unexpected results location %q", results)
	}

	tally := fetchResults(t, server.URL, id)
	if tally.TotalVotes != 1 {
		t.Fatalf("expected total 1, got %d", tally.TotalVotes)
	}
	for _, res := range tally.Choices {
		switch res.ChoiceID {
		case choices[0].ID:
			if res.Votes != 1 {
				t.Fatalf("expected 1 vote for Tea, got %d", res.Votes)
			}
		case choices[1].ID:
			if res.Votes != 0 {
				t.Fatalf("expected 0 votes for Coffee, got %d", res.Votes)
			}
		}
	}

	// Revote switches the single existing row to the new choice.
	revoteResp := castVote(t, server.URL, token, id, choices[1].ID)
	defer revoteResp.Body.Close()
	if revoteResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 revote, got %d", revoteResp.StatusCode)
	}
	var revotePayload map[string]any
	if err := json.NewDecoder(revoteResp.Body).Decode(&revotePayload); err != nil {
		t.Fatalf("decode revote response: %v", err)
	}
	if revote, _ := revotePayload["revote"].(bool); !revote {
		t.Fatalf("expected revote flag")
	}

	if voteRepo.rowCount() != 1 {
		t.Fatalf("expected exactly one vote row after revote, got %d", voteRepo.rowCount())
	}
	tally = fetchResults(t, server.URL, id)
	if tally.TotalVotes != 1 {
		t.Fatalf("expected total 1 after revote, got %d", tally.TotalVotes)
	}
	for _, res := range tally.Choices {
		switch res.ChoiceID {
		case choices[0].ID:
			if res.Votes != 0 {
				t.Fatalf("Tea must lose the vote after revote, got %d", res.Votes)
			}
		case choices[1].ID:
			if res.Votes != 1 {
				t.Fatalf("Coffee must gain the vote after revote, got %d", res.Votes)
			}
		}
	}
}

func TestDetailShowsPreviousVote(t *testing.T) {
	server, userRepo, questionRepo, _, cleanup := setupServer(t)
	defer cleanup()

	seedUserWithPassword(t, userRepo, "alice", "user", "pass123")
	token := loginAndToken(t, server.URL, "alice", "pass123")

	id, choices := seedQuestion(t, questionRepo, "Tea or coffee?", -days(5), nil, "Tea", "Coffee")

	voteResp := castVote(t, server.URL, token, id, choices[1].ID)
	voteResp.Body.Close()

	resp := doJSON(t, http.MethodGet, server.URL+"/polls/"+itoa(id), token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 detail, got %d", resp.StatusCode)
	}
	var payload struct {
		PreviousVote *vote.Vote `json:"previous_vote"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if payload.PreviousVote == nil || payload.PreviousVote.ChoiceID != choices[1].ID {
		t.Fatalf("expected previous vote for choice %d, got %+v", choices[1].ID, payload.PreviousVote)
	}
}

func TestVoteRejectsMissingAndForeignChoice(t *testing.T) {
	server, userRepo, questionRepo, voteRepo, cleanup := setupServer(t)
	defer cleanup()

	seedUserWithPassword(t, userRepo, "alice", "user", "pass123")
	token := loginAndToken(t, server.URL, "alice", "pass123")

	idA, _ := seedQuestion(t, questionRepo, "Question A", -days(5), nil, "A1", "A2")
	_, choicesB := seedQuestion(t, questionRepo, "Question B", -days(5), nil, "B1", "B2")

	// No choice field at all.
	resp := doJSON(t, http.MethodPost, server.URL+"/polls/"+itoa(idA)+"/vote", token, map[string]any{})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing choice, got %d", resp.StatusCode)
	}
	if payload := decodeError(t, resp); payload["error"] != "no_selection" {
		t.Fatalf("expected no_selection, got %+v", payload)
	}

	// A choice that belongs to another question.
	foreign := castVote(t, server.URL, token, idA, choicesB[0].ID)
	defer foreign.Body.Close()
	if foreign.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for foreign choice, got %d", foreign.StatusCode)
	}
	if payload := decodeError(t, foreign); payload["error"] != "no_selection" {
		t.Fatalf("expected no_selection, got %+v", payload)
	}

	if voteRepo.rowCount() != 0 {
		t.Fatalf("rejected submissions must not persist votes, found %d", voteRepo.rowCount())
	}
}

func TestVoteOnClosedQuestion(t *testing.T) {
	server, userRepo, questionRepo, voteRepo, cleanup := setupServer(t)
	defer cleanup()

	seedUserWithPassword(t, userRepo, "alice", "user", "pass123")
	token := loginAndToken(t, server.URL, "alice", "pass123")

	id, choices := seedQuestion(t, questionRepo, "Closed question", -days(10), durPtr(-days(5)), "yes", "no")

	resp := castVote(t, server.URL, token, id, choices[0].ID)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for closed question, got %d", resp.StatusCode)
	}
	if payload := decodeError(t, resp); payload["error"] != "voting_closed" {
		t.Fatalf("expected voting_closed, got %+v", payload)
	}
	if voteRepo.rowCount() != 0 {
		t.Fatalf("closed-question vote must not persist")
	}
}

func TestSignupLogsUserIn(t *testing.T) {
	server, _, questionRepo, _, cleanup := setupServer(t)
	defer cleanup()

	id, choices := seedQuestion(t, questionRepo, "Open question", -days(1), nil, "yes", "no")

	resp := doJSON(t, http.MethodPost, server.URL+"/auth/signup", "", authRequest{Username: "bob", Password: "pass123"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 signup, got %d", resp.StatusCode)
	}
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode signup: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatalf("signup must return a usable token")
	}

	// The signup token works right away.
	voteResp := castVote(t, server.URL, token, id, choices[0].ID)
	defer voteResp.Body.Close()
	if voteResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 vote with signup token, got %d", voteResp.StatusCode)
	}

	dup := doJSON(t, http.MethodPost, server.URL+"/auth/signup", "", authRequest{Username: "bob", Password: "other"})
	defer dup.Body.Close()
	if dup.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate username, got %d", dup.StatusCode)
	}
	if payload := decodeError(t, dup); payload["error"] != "username_taken" {
		t.Fatalf("expected username_taken, got %+v", payload)
	}
}

func TestCreateQuestionRejectsMalformedDates(t *testing.T) {
	server, userRepo, questionRepo, _, cleanup := setupServer(t)
	defer cleanup()

	seedUserWithPassword(t, userRepo, "admin", "admin", "pass123")
	adminToken := loginAndToken(t, server.URL, "admin", "pass123")

	cases := []map[string]any{
		{"text": "Bad end date", "choices": []string{"yes", "no"}, "end_date": "2026-9-30 10:00"},
		{"text": "Bad pub date", "choices": []string{"yes", "no"}, "pub_date": "yesterday"},
	}
	for _, body := range cases {
		resp := doJSON(t, http.MethodPost, server.URL+"/polls/", adminToken, body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", body, resp.StatusCode)
		}
		if payload := decodeError(t, resp); payload["error"] != "invalid_input" {
			t.Fatalf("expected invalid_input for %v, got %+v", body, payload)
		}
		resp.Body.Close()
	}

	if questionRepo.count() != 0 {
		t.Fatalf("malformed create must not persist, found %d questions", questionRepo.count())
	}
}

func TestCreateQuestionErrorMapping(t *testing.T) {
	server, userRepo, questionRepo, _, cleanup := setupServer(t)
	defer cleanup()

	seedUserWithPassword(t, userRepo, "admin", "admin", "pass123")
	adminToken := loginAndToken(t, server.URL, "admin", "pass123")

	// Validation failures stay client errors.
	resp := doJSON(t, http.MethodPost, server.URL+"/polls/", adminToken,
		createQuestionRequest{Text: "Lonely question", Choices: []string{"only"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for single-choice question, got %d", resp.StatusCode)
	}
	if payload := decodeError(t, resp); payload["error"] != "invalid_input" {
		t.Fatalf("expected invalid_input, got %+v", payload)
	}

	// Repository failures surface as sanitized internal errors.
	questionRepo.createErr = errors.New("connection reset by peer")
	failed := doJSON(t, http.MethodPost, server.URL+"/polls/", adminToken,
		createQuestionRequest{Text: "Valid question", Choices: []string{"yes", "no"}})
	defer failed.Body.Close()
	if failed.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 for repository failure, got %d", failed.StatusCode)
	}
	payload := decodeError(t, failed)
	if payload["error"] != "internal_error" {
		t.Fatalf("expected internal_error, got %+v", payload)
	}
	if strings.Contains(payload["message"], "connection reset") {
		t.Fatalf("internal error details must not reach the client: %+v", payload)
	}
}

func TestAdminRBAC(t *testing.T) {
	server, userRepo, _, _, cleanup := setupServer(t)
	defer cleanup()

	seedUserWithPassword(t, userRepo, "admin", "admin", "pass123")
	seedUserWithPassword(t, userRepo, "alice", "user", "pass123")

	adminToken := loginAndToken(t, server.URL, "admin", "pass123")
	userToken := loginAndToken(t, server.URL, "alice", "pass123")

	req := createQuestionRequest{Text: "Admin question", Choices: []string{"yes", "no"}}

	denied := doJSON(t, http.MethodPost, server.URL+"/polls/", userToken, req)
	defer denied.Body.Close()
	if denied.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin create, got %d", denied.StatusCode)
	}

	created := doJSON(t, http.MethodPost, server.URL+"/polls/", adminToken, req)
	defer created.Body.Close()
	if created.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for admin create, got %d", created.StatusCode)
	}
	var payload map[string]int64
	if err := json.NewDecoder(created.Body).Decode(&payload); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	id := payload["id"]

	deleted := doJSON(t, http.MethodDelete, server.URL+"/polls/"+itoa(id), adminToken, nil)
	defer deleted.Body.Close()
	if deleted.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 for admin delete, got %d", deleted.StatusCode)
	}

	gone, err := http.Get(server.URL + "/polls/" + itoa(id))
	if err != nil {
		t.Fatalf("detail after delete: %v", err)
	}
	defer gone.Body.Close()
	if gone.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", gone.StatusCode)
	}
}
