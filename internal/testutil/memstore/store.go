// Package memstore provides mutex-guarded in-memory repositories for tests.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docvault/internal/domain"
	"docvault/internal/domain/models/access"
	"docvault/internal/domain/models/docsystem"
	"docvault/internal/domain/repositories"
)

// ErrInjected is returned by a store whose Fail field is set
var ErrInjected = errors.New("injected store failure")

// Store holds every table. The repositories returned by its methods share it.
type Store struct {
	mu sync.Mutex

	Documents    map[string]*docsystem.Document
	Versions     []docsystem.DocumentVersion
	AccessLogs   []docsystem.AccessLog
	Grants       []access.Grant
	GroupGrants  []access.GroupGrant
	GroupMembers map[string][]string // group id -> user ids
	ShareLinks   map[string]*access.ShareLink
	Indexed      map[string]*docsystem.IndexedDocument

	// Fail makes every permission lookup return ErrInjected
	Fail bool
	// FailAccessLog makes access log writes fail
	FailAccessLog bool
	// FailIndex makes search index writes fail
	FailIndex bool
	// RawLevels stores unparsed permission text per grant id
	RawLevels map[string]string

	Now func() time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{
		Documents:    map[string]*docsystem.Document{},
		GroupMembers: map[string][]string{},
		ShareLinks:   map[string]*access.ShareLink{},
		Indexed:      map[string]*docsystem.IndexedDocument{},
		RawLevels:    map[string]string{},
		Now:          time.Now,
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
}

// AddDocument inserts a live document directly and returns its id
func (s *Store) AddDocument(doc docsystem.Document) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	if doc.Status == "" {
		doc.Status = docsystem.DocumentStatusActive
	}
	now := s.Now()
	doc.CreatedAt, doc.UpdatedAt = now, now
	s.Documents[doc.ID] = &doc
	return doc.ID
}

// AddGrant inserts a direct grant directly
func (s *Store) AddGrant(g access.Grant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.GrantedAt = s.Now()
	s.Grants = append(s.Grants, g)
}

// AddGroupMember adds a user to a group
func (s *Store) AddGroupMember(groupID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GroupMembers[groupID] = append(s.GroupMembers[groupID], userID)
}

// Document returns a copy of a stored document, deleted or not
func (s *Store) Document(id string) (docsystem.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.Documents[id]
	if !ok {
		return docsystem.Document{}, false
	}
	return *d, true
}

// LogActions returns the recorded access log actions for a document in order
func (s *Store) LogActions(documentID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, l := range s.AccessLogs {
		if l.DocumentID == documentID {
			out = append(out, l.Action)
		}
	}
	return out
}

// ============================================================================
// Transactions
// ============================================================================

// TxManager runs fn directly; Commits and Rollbacks count outcomes
type TxManager struct {
	mu        sync.Mutex
	Commits   int
	Rollbacks int
}

// ExecTx implements repositories.TransactionManager
func (m *TxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	err := fn(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.Rollbacks++
	} else {
		m.Commits++
	}
	return err
}

// ============================================================================
// Documents
// ============================================================================

// DocumentRepo is the document repository view of the store
type DocumentRepo struct{ *Store }

// DocumentRepo returns the document repository
func (s *Store) DocumentRepo() *DocumentRepo { return &DocumentRepo{s} }

func (r *DocumentRepo) Create(ctx context.Context, doc *docsystem.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.ParentFolderID != nil {
		if _, ok := r.Documents[*doc.ParentFolderID]; !ok {
			return notFound("parent folder", *doc.ParentFolderID)
		}
	}
	doc.ID = uuid.NewString()
	if doc.Version == 0 {
		doc.Version = 1
	}
	if doc.Status == "" {
		doc.Status = docsystem.DocumentStatusActive
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	now := r.Now()
	doc.CreatedAt, doc.UpdatedAt = now, now
	stored := *doc
	r.Documents[doc.ID] = &stored
	return nil
}

func (r *DocumentRepo) live(id string) (*docsystem.Document, error) {
	d, ok := r.Documents[id]
	if !ok || d.DeletedAt != nil {
		return nil, notFound("document", id)
	}
	return d, nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*docsystem.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, err := r.live(id)
	if err != nil {
		return nil, err
	}
	cp := *d
	return &cp, nil
}

func (r *DocumentRepo) GetByIDIncludingDeleted(ctx context.Context, id string) (*docsystem.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.Documents[id]
	if !ok {
		return nil, notFound("document", id)
	}
	cp := *d
	return &cp, nil
}

func (r *DocumentRepo) GetOwnerID(ctx context.Context, id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail {
		return "", ErrInjected
	}
	d, err := r.live(id)
	if err != nil {
		return "", err
	}
	return d.OwnerID, nil
}

func (r *DocumentRepo) List(ctx context.Context, opts docsystem.ListOptions) ([]docsystem.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []docsystem.Document{}
	for _, d := range r.Documents {
		if d.DeletedAt != nil || d.OwnerID != opts.OwnerID {
			continue
		}
		switch {
		case opts.ParentFolderID == nil && d.ParentFolderID != nil:
			continue
		case opts.ParentFolderID != nil && (d.ParentFolderID == nil || *d.ParentFolderID != *opts.ParentFolderID):
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *DocumentRepo) UpdateMetadata(ctx context.Context, id string, u *docsystem.MetadataUpdate) (*docsystem.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, err := r.live(id)
	if err != nil {
		return nil, err
	}
	if u.Name != nil {
		d.Name = *u.Name
	}
	if u.Description != nil {
		d.Description = u.Description
	}
	if u.TagsSet {
		d.Tags = u.Tags
	}
	d.UpdatedAt = r.Now()
	cp := *d
	return &cp, nil
}

func (r *DocumentRepo) Move(ctx context.Context, id string, parent *string) (*docsystem.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, err := r.live(id)
	if err != nil {
		return nil, err
	}
	d.ParentFolderID = parent
	d.UpdatedAt = r.Now()
	cp := *d
	return &cp, nil
}

func (r *DocumentRepo) SoftDelete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, err := r.live(id)
	if err != nil {
		return err
	}
	now := r.Now()
	d.DeletedAt = &now
	return nil
}

func (r *DocumentRepo) ApplyNewVersion(ctx context.Context, id string, expected int, filePath string, size int64) (*docsystem.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, err := r.live(id)
	if err != nil {
		return nil, err
	}
	if d.Version != expected {
		return nil, &domain.ConflictError{Message: "version changed", ResourceType: "document", ResourceID: id}
	}
	d.FilePath = filePath
	d.FileSize = size
	d.Version++
	d.UpdatedAt = r.Now()
	cp := *d
	return &cp, nil
}

// ============================================================================
// Versions and access logs
// ============================================================================

// VersionRepo is the version repository view of the store
type VersionRepo struct{ *Store }

// VersionRepo returns the version repository
func (s *Store) VersionRepo() *VersionRepo { return &VersionRepo{s} }

func (r *VersionRepo) Append(ctx context.Context, v *docsystem.DocumentVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v.ID = uuid.NewString()
	v.CreatedAt = r.Now()
	r.Versions = append(r.Versions, *v)
	return nil
}

func (r *VersionRepo) ListByDocument(ctx context.Context, documentID string) ([]docsystem.DocumentVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []docsystem.DocumentVersion{}
	for i := len(r.Versions) - 1; i >= 0; i-- {
		if r.Versions[i].DocumentID == documentID {
			out = append(out, r.Versions[i])
		}
	}
	return out, nil
}

// AccessLogRepo is the access log repository view of the store
type AccessLogRepo struct{ *Store }

// AccessLogRepo returns the access log repository
func (s *Store) AccessLogRepo() *AccessLogRepo { return &AccessLogRepo{s} }

func (r *AccessLogRepo) Append(ctx context.Context, entry *docsystem.AccessLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAccessLog {
		return ErrInjected
	}
	entry.ID = uuid.NewString()
	entry.CreatedAt = r.Now()
	r.AccessLogs = append(r.AccessLogs, *entry)
	return nil
}

func (r *AccessLogRepo) ListByDocument(ctx context.Context, documentID string, limit int) ([]docsystem.AccessLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []docsystem.AccessLog{}
	for i := len(r.AccessLogs) - 1; i >= 0 && len(out) < limit; i-- {
		if r.AccessLogs[i].DocumentID == documentID {
			out = append(out, r.AccessLogs[i])
		}
	}
	return out, nil
}

// ============================================================================
// Search index
// ============================================================================

// SearchIndex is a substring-matching index view of the store
type SearchIndex struct{ *Store }

// SearchIndex returns the search index
func (s *Store) SearchIndex() *SearchIndex { return &SearchIndex{s} }

func (r *SearchIndex) Index(ctx context.Context, doc *docsystem.IndexedDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailIndex {
		return ErrInjected
	}
	cp := *doc
	r.Indexed[doc.ID] = &cp
	return nil
}

func (r *SearchIndex) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailIndex {
		return ErrInjected
	}
	delete(r.Indexed, id)
	return nil
}

// Search matches names case-insensitively and keeps documents the viewer owns
// or holds a live direct read grant on
func (r *SearchIndex) Search(ctx context.Context, opts *docsystem.SearchOptions) (*docsystem.SearchResults, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	results := []docsystem.SearchResult{}
	q := strings.ToLower(opts.Query)
	for _, d := range r.Indexed {
		if !strings.Contains(strings.ToLower(d.Name), q) {
			continue
		}
		if d.OwnerID != opts.ViewerID && !r.hasLiveDirect(opts.ViewerID, d.ID, access.LevelRead) {
			continue
		}
		results = append(results, docsystem.SearchResult{Document: *d, Score: 1})
	}
	return docsystem.NewSearchResults(results, len(results), opts), nil
}

// ============================================================================
// Permissions
// ============================================================================

// PermissionRepo is the permission store view
type PermissionRepo struct{ *Store }

// PermissionRepo returns the permission repository
func (s *Store) PermissionRepo() *PermissionRepo { return &PermissionRepo{s} }

func (s *Store) hasLiveDirect(userID, documentID string, level access.Level) bool {
	now := s.Now()
	for _, g := range s.Grants {
		if g.DocumentID == documentID && g.UserID == userID && g.Permission == level && access.IsLive(g.ExpiresAt, now) {
			return true
		}
	}
	return false
}

func (r *PermissionRepo) IsOwner(ctx context.Context, userID, documentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail {
		return false, ErrInjected
	}
	d, ok := r.Documents[documentID]
	return ok && d.OwnerID == userID, nil
}

func (r *PermissionRepo) HasLiveDirectGrant(ctx context.Context, userID, documentID string, level access.Level) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail {
		return false, ErrInjected
	}
	return r.hasLiveDirect(userID, documentID, level), nil
}

func (r *PermissionRepo) HasLiveGroupGrant(ctx context.Context, userID, documentID string, level access.Level) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail {
		return false, ErrInjected
	}
	now := r.Now()
	for _, g := range r.GroupGrants {
		if g.DocumentID != documentID || g.Permission != level || !access.IsLive(g.ExpiresAt, now) {
			continue
		}
		for _, member := range r.GroupMembers[g.GroupID] {
			if member == userID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *PermissionRepo) ListLiveDirectLevels(ctx context.Context, userID, documentID string) ([]access.Level, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail {
		return nil, ErrInjected
	}
	seen := map[access.Level]bool{}
	levels := []access.Level{}
	now := r.Now()
	for _, g := range r.Grants {
		if g.DocumentID != documentID || g.UserID != userID || !access.IsLive(g.ExpiresAt, now) {
			continue
		}
		level := g.Permission
		if raw, ok := r.RawLevels[g.ID]; ok {
			parsed, err := access.ParseStoredLevel(raw)
			if err != nil {
				return nil, err
			}
			level = parsed
		}
		if !seen[level] {
			seen[level] = true
			levels = append(levels, level)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	return levels, nil
}

func (r *PermissionRepo) Grant(ctx context.Context, g *access.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Documents[g.DocumentID]; !ok {
		return notFound("document", g.DocumentID)
	}
	g.ID = uuid.NewString()
	g.GrantedAt = r.Now()
	r.Grants = append(r.Grants, *g)
	return nil
}

func (r *PermissionRepo) Revoke(ctx context.Context, documentID, userID string, level access.Level) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.Grants[:0]
	removed := 0
	for _, g := range r.Grants {
		if g.DocumentID == documentID && g.UserID == userID && g.Permission == level {
			removed++
			continue
		}
		kept = append(kept, g)
	}
	r.Grants = kept
	if removed == 0 {
		return notFound("permission", string(level))
	}
	return nil
}

func (r *PermissionRepo) ListForDocument(ctx context.Context, documentID string) ([]access.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []access.Grant{}
	for _, g := range r.Grants {
		if g.DocumentID == documentID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *PermissionRepo) GrantGroup(ctx context.Context, g *access.GroupGrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Documents[g.DocumentID]; !ok {
		return notFound("document", g.DocumentID)
	}
	g.ID = uuid.NewString()
	g.GrantedAt = r.Now()
	r.GroupGrants = append(r.GroupGrants, *g)
	return nil
}

func (r *PermissionRepo) RevokeGroup(ctx context.Context, documentID, groupID string, level access.Level) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.GroupGrants[:0]
	removed := 0
	for _, g := range r.GroupGrants {
		if g.DocumentID == documentID && g.GroupID == groupID && g.Permission == level {
			removed++
			continue
		}
		kept = append(kept, g)
	}
	r.GroupGrants = kept
	if removed == 0 {
		return notFound("group permission", string(level))
	}
	return nil
}

func (r *PermissionRepo) ListGroupGrantsForDocument(ctx context.Context, documentID string) ([]access.GroupGrant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []access.GroupGrant{}
	for _, g := range r.GroupGrants {
		if g.DocumentID == documentID {
			out = append(out, g)
		}
	}
	return out, nil
}

// ============================================================================
// Share links
// ============================================================================

// ShareLinkRepo is the share link repository view
type ShareLinkRepo struct{ *Store }

// ShareLinkRepo returns the share link repository
func (s *Store) ShareLinkRepo() *ShareLinkRepo { return &ShareLinkRepo{s} }

func (r *ShareLinkRepo) Create(ctx context.Context, link *access.ShareLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.ShareLinks {
		if l.Token == link.Token {
			return fmt.Errorf("share token collision: %w", domain.ErrConflict)
		}
	}
	link.ID = uuid.NewString()
	link.AccessCount = 0
	link.CreatedAt = r.Now()
	cp := *link
	r.ShareLinks[link.ID] = &cp
	return nil
}

func (r *ShareLinkRepo) GetByToken(ctx context.Context, token string) (*access.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.ShareLinks {
		if l.Token == token {
			cp := *l
			return &cp, nil
		}
	}
	return nil, notFound("share link", "")
}

func (r *ShareLinkRepo) GetByID(ctx context.Context, id string) (*access.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.ShareLinks[id]
	if !ok {
		return nil, notFound("share link", id)
	}
	cp := *l
	return &cp, nil
}

func (r *ShareLinkRepo) ListByDocument(ctx context.Context, documentID string) ([]access.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []access.ShareLink{}
	for _, l := range r.ShareLinks {
		if l.DocumentID == documentID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ConsumeUse checks and increments under one lock acquisition
func (r *ShareLinkRepo) ConsumeUse(ctx context.Context, token string) (*access.ShareLink, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.ShareLinks {
		if l.Token != token {
			continue
		}
		if l.IsExpired(r.Now()) || l.IsExhausted() {
			return nil, false, nil
		}
		l.AccessCount++
		cp := *l
		return &cp, true, nil
	}
	return nil, false, nil
}

func (r *ShareLinkRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ShareLinks[id]; !ok {
		return notFound("share link", id)
	}
	delete(r.ShareLinks, id)
	return nil
}
