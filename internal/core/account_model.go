package core

import (
	"fmt"
	"strconv"
	"strings"
)

// AccountLevel is the depth of a customer account below its root group (kol).
type AccountLevel int

const (
	Level1 AccountLevel = iota + 1 // moin
	Level2                         // tnumber1
	Level3                         // tnumber2
	Level4                         // tnumber3
)

const maxAccountDepth = 4

var levelColumns = [maxAccountDepth + 1]string{"", "moin", "tnumber1", "tnumber2", "tnumber3"}

func (l AccountLevel) Valid() bool {
	return l >= Level1 && l <= Level4
}

// Column is the customer_accounts column holding the id allocated at this level.
func (l AccountLevel) Column() string {
	if !l.Valid() {
		return ""
	}
	return levelColumns[l]
}

// AccountPath addresses a node: the root group plus up to four ids, 0 meaning unused.
type AccountPath struct {
	Kol int
	IDs [maxAccountDepth]int
}

// Depth is the number of leading non-zero ids.
func (p AccountPath) Depth() int {
	d := 0
	for d < maxAccountDepth && p.IDs[d] != 0 {
		d++
	}
	return d
}

// Valid reports whether kol is set and no id follows an unused level.
func (p AccountPath) Valid() bool {
	if p.Kol <= 0 {
		return false
	}
	d := p.Depth()
	for i := d; i < maxAccountDepth; i++ {
		if p.IDs[i] != 0 {
			return false
		}
	}
	for i := 0; i < d; i++ {
		if p.IDs[i] < 0 {
			return false
		}
	}
	return true
}

// Child returns the path one level deeper with id at the next level.
func (p AccountPath) Child(id int) AccountPath {
	c := p
	if d := p.Depth(); d < maxAccountDepth {
		c.IDs[d] = id
	}
	return c
}

// Code renders the dotted account code, e.g. "1.3.12".
func (p AccountPath) Code() string {
	parts := []string{strconv.Itoa(p.Kol)}
	for i := 0; i < p.Depth(); i++ {
		parts = append(parts, strconv.Itoa(p.IDs[i]))
	}
	return strings.Join(parts, ".")
}

// ParseAccountCode parses a dotted account code back into a path.
func ParseAccountCode(code string) (AccountPath, error) {
	parts := strings.Split(strings.TrimSpace(code), ".")
	if len(parts) > maxAccountDepth+1 {
		return AccountPath{}, fmt.Errorf("invalid account code %q", code)
	}
	var p AccountPath
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return AccountPath{}, fmt.Errorf("invalid account code %q", code)
		}
		if i == 0 {
			p.Kol = n
		} else {
			p.IDs[i-1] = n
		}
	}
	return p, nil
}

// AccountParent is the allocation point of a new node: the level being allocated and
// the fully resolved path of its parent.
type AccountParent struct {
	Level AccountLevel
	Path  AccountPath
}

// ParentFor returns the allocation point directly below path.
func ParentFor(path AccountPath) (AccountParent, error) {
	if !path.Valid() {
		return AccountParent{}, fmt.Errorf("invalid account path %s", path.Code())
	}
	d := path.Depth()
	if d == maxAccountDepth {
		return AccountParent{}, fmt.Errorf("account %s is already at the deepest level", path.Code())
	}
	return AccountParent{Level: AccountLevel(d + 1), Path: path}, nil
}

// AccountScope numbers the children of one parent node.
type AccountScope struct {
	Parent AccountParent
}

func (s AccountScope) Key() string {
	return fmt.Sprintf("account:%s:L%d", s.Parent.Path.Code(), s.Parent.Level)
}

func (s AccountScope) maxQuery() (string, []any) {
	col := s.Parent.Level.Column()
	q := fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) + 1 FROM customer_accounts WHERE kol = $1", col)
	args := []any{s.Parent.Path.Kol}
	for i := 0; i < int(s.Parent.Level)-1; i++ {
		args = append(args, s.Parent.Path.IDs[i])
		q += fmt.Sprintf(" AND %s = $%d", levelColumns[i+1], len(args))
	}
	args = append(args, int(s.Parent.Level))
	q += fmt.Sprintf(" AND level = $%d", len(args))
	return q, args
}

// AccountRequest creates every missing node from below Parent down to TargetLevel.
type AccountRequest struct {
	Parent      AccountPath
	TargetLevel AccountLevel
	Name        string `validate:"required,max=200"`
	Phone       string `validate:"max=32"`
	Address     string `validate:"max=500"`
}

// AccountResult is the created leaf and every node created on the way.
type AccountResult struct {
	Path        AccountPath
	CustomerRef string
	Created     []AccountPath
}

// CustomerAccount is one persisted node.
type CustomerAccount struct {
	Path      AccountPath
	Level     AccountLevel
	Name      string
	CreatedBy int
}
