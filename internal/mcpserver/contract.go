package mcpserver

// MoveRules describes the outline hierarchy and where an item may be moved.
// Agents should read it before calling move_item.
const MoveRules = `# Coursemover Move Rules

A course outline is a strict four-level hierarchy below the course root.

| depth | level      | Studio category | holds       |
|-------|------------|-----------------|-------------|
| 0     | course     | course          | sections    |
| 1     | section    | chapter         | subsections |
| 2     | subsection | sequential      | units       |
| 3     | unit       | vertical        | components  |
| 4     | component  | any other       | nothing     |

## Navigating

1. ` + "`open_move_session`" + ` starts at the item's current parent. Rows on the path
   to the item are marked ` + "`(Current location)`" + `.
2. ` + "`descend`" + ` opens the row at a zero-based index. Components cannot be
   opened. An index outside the list is an error, never clamped.
3. ` + "`ascend`" + ` returns to a breadcrumb depth; 0 is the course outline.

## Eligibility

The current location accepts the item only when all of these hold:

- it is the level directly above the item (units hold components, subsections
  hold units, sections hold subsections);
- it is not the item's current parent;
- it already has at least one child.

` + "`move_item`" + ` fails at any other location. Only one move or undo runs at a time.

## Undo

A successful move returns a banner offering undo. ` + "`undo_move`" + ` puts the item back
under its original parent at its original position, once.
`
