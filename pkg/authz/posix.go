package authz

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/certgate/certgate/internal/logger"
	"github.com/certgate/certgate/pkg/auth"
	"github.com/certgate/certgate/pkg/identity"
)

// POSIXGroup checks membership in a local system group by reading the
// group database's member list.
type POSIXGroup struct {
	group     string
	groupFile string
}

var _ Authorizer = (*POSIXGroup)(nil)

// NewPOSIXGroup builds the local-group rule. groupFile is usually
// /etc/group; tests point it at a fixture.
func NewPOSIXGroup(group, groupFile string) *POSIXGroup {
	return &POSIXGroup{group: group, groupFile: groupFile}
}

// Name implements Authorizer.
func (g *POSIXGroup) Name() string { return "posix" }

// Authorize implements Authorizer.
func (g *POSIXGroup) Authorize(ctx context.Context, rc *identity.RequestContext) error {
	if rc.HasGroup(g.group) {
		return nil
	}

	members, err := groupMembers(g.groupFile, g.group)
	if err != nil {
		return err
	}

	username := rc.User.Name
	for _, member := range members {
		if member == username {
			rc.AddGroup(g.group)
			return nil
		}
	}

	logger.Info("user not member of group", "user", username, "group", g.group)
	return auth.Forbidden("User not member of designated group")
}

// groupMembers reads the member list of the named group from a group(5)
// format file.
func groupMembers(path, group string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read group database %s: %w", path, err)
	}

	for line := range strings.Lines(string(data)) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// name:password:gid:member,member,...
		fields := strings.Split(line, ":")
		if len(fields) < 4 || fields[0] != group {
			continue
		}
		if fields[3] == "" {
			return nil, nil
		}
		return strings.Split(fields[3], ","), nil
	}
	return nil, fmt.Errorf("group %q not found in %s", group, path)
}
