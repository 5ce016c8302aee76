package store

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// nearbyRadius is the coordinate box (in degrees) a merchant must fall in
// to count as "nearby" for detect-stores.
const nearbyRadius = 0.05

// MemoryStore holds all stub backend state. Users are keyed by email.
type MemoryStore struct {
	Users     *KV[User]
	Merchants *KV[Merchant]
	Rules     *KV[RewardRule]
	Clock     *Clock

	bolt *BoltStore // optional write-through persistence
}

// New creates a MemoryStore seeded with the default merchant table and
// reward rules.
func New() *MemoryStore {
	s := &MemoryStore{
		Users:     NewKV[User](),
		Merchants: NewKV[Merchant](),
		Rules:     NewKV[RewardRule](),
		Clock:     NewClock(),
	}
	s.seedDefaults()
	return s
}

func (s *MemoryStore) seedDefaults() {
	for _, m := range defaultMerchants {
		s.Merchants.Set(strings.ToLower(m.Name), m)
	}
	for i, r := range defaultRules {
		s.Rules.Set(ruleKey(i), r)
	}
}

func ruleKey(i int) string {
	return fmt.Sprintf("rule_%02d", i)
}

// defaultMerchants clusters around a test coordinate block so the
// detect-stores flows have zero-, one- and many-candidate cases.
var defaultMerchants = []Merchant{
	{Name: "Costco Wholesale", Category: "wholesale", Latitude: 40.7128, Longitude: -74.0060},
	{Name: "Shell", Category: "gas", Latitude: 40.7130, Longitude: -74.0055},
	{Name: "Whole Foods Market", Category: "grocery", Latitude: 40.7520, Longitude: -73.9772},
	{Name: "Starbucks", Category: "dining", Latitude: 37.7749, Longitude: -122.4194},
	{Name: "Chipotle", Category: "dining", Latitude: 37.7751, Longitude: -122.4190},
	{Name: "Target", Category: "retail", Latitude: 41.8781, Longitude: -87.6298},
}

var defaultRules = []RewardRule{
	{CardPattern: "costco", Category: "gas", Rate: 4, Reasoning: "4% on gas with the Costco card"},
	{CardPattern: "costco", Category: "wholesale", Rate: 2, Reasoning: "2% at Costco warehouses"},
	{CardPattern: "gold", Category: "dining", Rate: 4, Reasoning: "4x points on dining"},
	{CardPattern: "gold", Category: "grocery", Rate: 4, Reasoning: "4x points at supermarkets"},
	{CardPattern: "blue cash", Category: "grocery", Rate: 6, Reasoning: "6% at U.S. supermarkets"},
	{CardPattern: "sapphire", Category: "dining", Rate: 3, Reasoning: "3x points on dining"},
	{CardPattern: "freedom", Quarter: "Q1", Category: "grocery", Rate: 5, Reasoning: "5% rotating bonus: groceries this quarter"},
	{CardPattern: "freedom", Quarter: "Q2", Category: "gas", Rate: 5, Reasoning: "5% rotating bonus: gas this quarter"},
	{CardPattern: "freedom", Quarter: "Q3", Category: "dining", Rate: 5, Reasoning: "5% rotating bonus: dining this quarter"},
	{CardPattern: "freedom", Quarter: "Q4", Category: "online", Rate: 5, Reasoning: "5% rotating bonus: online shopping this quarter"},
	{CardPattern: "", Category: "", Rate: 1, Reasoning: "1% base earn rate"},
}

// SetUser upserts a user and persists it when a bolt database is attached.
func (s *MemoryStore) SetUser(u User) error {
	s.Users.Set(strings.ToLower(u.Email), u)
	if s.bolt != nil {
		return s.bolt.PutUser(u)
	}
	return nil
}

// GetUser looks a user up by email, case-insensitively.
func (s *MemoryStore) GetUser(email string) (User, bool) {
	return s.Users.Get(strings.ToLower(email))
}

// NearbyMerchants returns seeded merchants within the resolution radius of
// the given coordinates, in table order.
func (s *MemoryStore) NearbyMerchants(lat, lng float64) []Merchant {
	return s.Merchants.Filter(func(_ string, m Merchant) bool {
		return math.Abs(m.Latitude-lat) <= nearbyRadius && math.Abs(m.Longitude-lng) <= nearbyRadius
	})
}

// Categorize maps a store name to a spending category: exact merchant
// table match first, then keyword heuristics, then "general".
func (s *MemoryStore) Categorize(storeName string) string {
	name := strings.ToLower(strings.TrimSpace(storeName))
	if name == "" {
		return "general"
	}
	if m, ok := s.Merchants.Get(name); ok {
		return m.Category
	}
	for _, m := range s.Merchants.List() {
		merchantName := strings.ToLower(m.Name)
		if strings.Contains(name, merchantName) || strings.Contains(merchantName, name) {
			return m.Category
		}
	}
	for keyword, category := range categoryKeywords {
		if strings.Contains(name, keyword) {
			return category
		}
	}
	return "general"
}

var categoryKeywords = map[string]string{
	"costco":  "wholesale",
	"sam's":   "wholesale",
	"shell":   "gas",
	"exxon":   "gas",
	"chevron": "gas",
	"grocery": "grocery",
	"market":  "grocery",
	"kroger":  "grocery",
	"safeway": "grocery",
	"restaurant": "dining",
	"cafe":    "dining",
	"coffee":  "dining",
	"amazon":  "online",
}

// stateSnapshot is the JSON-serializable admin state.
type stateSnapshot struct {
	Users     map[string]User       `json:"users"`
	Merchants map[string]Merchant   `json:"merchants"`
	Rules     map[string]RewardRule `json:"rules"`
}

// Snapshot returns the full state for the admin control plane.
func (s *MemoryStore) Snapshot() any {
	return stateSnapshot{
		Users:     s.Users.Snapshot(),
		Merchants: s.Merchants.Snapshot(),
		Rules:     s.Rules.Snapshot(),
	}
}

// LoadState replaces state from a JSON body. Sections absent from the body
// are left untouched, so a seed file can ship only users or only merchants.
func (s *MemoryStore) LoadState(data []byte) error {
	var snap stateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	if snap.Users != nil {
		s.Users.LoadSnapshot(snap.Users)
	}
	if snap.Merchants != nil {
		s.Merchants.LoadSnapshot(snap.Merchants)
	}
	if snap.Rules != nil {
		s.Rules.LoadSnapshot(snap.Rules)
	}
	return nil
}

// Reset restores the defaults and drops all users.
func (s *MemoryStore) Reset() {
	s.Users.Reset()
	s.Merchants.Reset()
	s.Rules.Reset()
	s.Clock.Reset()
	s.seedDefaults()
}
