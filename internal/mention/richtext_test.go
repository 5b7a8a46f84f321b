package mention

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRefs(t *testing.T) {
	tests := []struct {
		name string
		html string
		want []Ref
	}{
		{
			name: "single decorated mention",
			html: `<body>Hey <a data-asana-type="user" data-asana-gid="42">@Bob Smith</a>!</body>`,
			want: []Ref{{UserGID: "42", UserName: "Bob Smith"}},
		},
		{
			name: "multiple mentions in order",
			html: `<body><a data-asana-type="user" data-asana-gid="1">@A</a> ` +
				`and <a data-asana-type="user" data-asana-gid="2">@B</a></body>`,
			want: []Ref{{UserGID: "1", UserName: "A"}, {UserGID: "2", UserName: "B"}},
		},
		{
			name: "plain text at-name is not a mention",
			html: `<body>ping @Bob about this</body>`,
			want: nil,
		},
		{
			name: "non-user anchor ignored",
			html: `<body><a data-asana-type="task" data-asana-gid="9">task</a></body>`,
			want: nil,
		},
		{
			name: "anchor without gid ignored",
			html: `<body><a data-asana-type="user">@Bob</a></body>`,
			want: nil,
		},
		{
			name: "mention with nested formatting",
			html: `<body><a data-asana-type="user" data-asana-gid="7"><b>@Bob</b></a></body>`,
			want: []Ref{{UserGID: "7", UserName: "Bob"}},
		},
		{
			name: "empty input",
			html: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractRefs(tt.html)
			require.Len(t, got, len(tt.want))
			assert.Equal(t, tt.want, got)
		})
	}
}
