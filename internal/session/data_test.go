package session

import (
	"sync"

	"github.com/treefix50/playhead/internal/user"
)

// fakeData is an in-memory DataStore for tests.
type fakeData struct {
	mu           sync.Mutex
	records      map[string]UserItemData
	savedUsers   []string
	failSaveUser error
	failLoad     error
	failSaveData error
}

func newFakeData() *fakeData {
	return &fakeData{records: make(map[string]UserItemData)}
}

func (f *fakeData) key(userID, itemKey string) string { return userID + "/" + itemKey }

func (f *fakeData) UserItemData(userID, itemKey string) (UserItemData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLoad != nil {
		return UserItemData{}, f.failLoad
	}
	return f.records[f.key(userID, itemKey)], nil
}

func (f *fakeData) SaveUserItemData(userID, itemKey string, data UserItemData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaveData != nil {
		return f.failSaveData
	}
	f.records[f.key(userID, itemKey)] = data
	return nil
}

func (f *fakeData) SaveUser(u *user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaveUser != nil {
		return f.failSaveUser
	}
	f.savedUsers = append(f.savedUsers, u.ID)
	return nil
}

func (f *fakeData) record(userID, itemKey string) UserItemData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[f.key(userID, itemKey)]
}

func (f *fakeData) savedUserCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.savedUsers)
}
