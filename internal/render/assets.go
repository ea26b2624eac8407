package render

// CopyScript drives the injected copy controls. It copies the block's plain
// text, falls back to an off-screen selection when the clipboard API is
// unavailable or denied, and shows transient feedback before reverting.
const CopyScript = `(function () {
  var FEEDBACK_MS = 2000;

  function fallbackCopy(text) {
    var textarea = document.createElement('textarea');
    textarea.value = text;
    textarea.setAttribute('readonly', 'true');
    textarea.style.position = 'absolute';
    textarea.style.left = '-9999px';
    document.body.appendChild(textarea);
    textarea.select();
    var ok = false;
    try {
      ok = document.execCommand('copy');
    } catch (err) {
      ok = false;
    }
    document.body.removeChild(textarea);
    return ok;
  }

  function copyText(text) {
    if (!text.length) {
      return Promise.resolve(false);
    }
    if (navigator.clipboard && navigator.clipboard.writeText) {
      return navigator.clipboard.writeText(text).then(
        function () { return true; },
        function () { return fallbackCopy(text); }
      );
    }
    return Promise.resolve(fallbackCopy(text));
  }

  function showFeedback(button, ok) {
    button.textContent = ok ? 'Copied!' : 'Copy failed';
    button.classList.add(ok
      ? 'code-block__copy-button--copied'
      : 'code-block__copy-button--error');
    window.setTimeout(function () {
      button.textContent = 'Copy';
      button.classList.remove(
        'code-block__copy-button--copied',
        'code-block__copy-button--error'
      );
    }, FEEDBACK_MS);
  }

  document.addEventListener('click', function (event) {
    var button = event.target.closest('.code-block__copy-button');
    if (!button) {
      return;
    }
    var pre = button.closest('pre');
    var code = pre && pre.querySelector('code');
    var text = code ? code.textContent : '';
    copyText(text).then(function (ok) { showFeedback(button, ok); });
  });
})();
`

// BaseCSS is the minimal viewer stylesheet: layout for the list/detail
// panels and the code block chrome the enhancer emits.
const BaseCSS = `:root {
  --bg: #ffffff;
  --fg: #1f2328;
  --muted: #636c76;
  --border: #d0d7de;
  --accent: #0969da;
  --code-bg: #22272e;
}

* { box-sizing: border-box; }

body {
  margin: 0;
  font-family: system-ui, -apple-system, "Segoe UI", sans-serif;
  color: var(--fg);
  background: var(--bg);
  line-height: 1.6;
}

.layout {
  display: grid;
  grid-template-columns: 280px 1fr;
  gap: 2rem;
  max-width: 1100px;
  margin: 0 auto;
  padding: 2rem 1rem;
}

.sidebar h2 { font-size: 1rem; text-transform: uppercase; color: var(--muted); }

.sidebar ul { list-style: none; margin: 0; padding: 0; }

.sidebar li a {
  display: block;
  padding: 0.5rem 0.75rem;
  border-radius: 6px;
  color: inherit;
  text-decoration: none;
}

.sidebar li a:hover, .sidebar li a.active { background: #f6f8fa; color: var(--accent); }

.sidebar .item-date { display: block; font-size: 0.8rem; color: var(--muted); }

.status { color: var(--muted); }
.status--error { color: #cf222e; }

.placeholder { color: var(--muted); padding: 3rem 0; text-align: center; }

.guide__meta { color: var(--muted); }

.guide__cta {
  display: inline-block;
  margin-top: 0.5rem;
  padding: 0.4rem 0.9rem;
  border: 1px solid var(--accent);
  border-radius: 6px;
  color: var(--accent);
  text-decoration: none;
}

.guide__resource-type {
  font-size: 0.8rem;
  color: var(--muted);
  border: 1px solid var(--border);
  border-radius: 999px;
  padding: 0 0.5rem;
}

div.status--error { border: 1px solid #cf222e; border-radius: 6px; padding: 0.75rem 1rem; }
div.status--error li { color: #cf222e; }

pre.code-block {
  position: relative;
  background: var(--code-bg);
  color: #adbac7;
  border-radius: 8px;
  padding: 1rem;
  overflow-x: auto;
}

pre.code-block code { background: transparent; font-size: 0.9rem; }

.code-block__copy-button {
  position: absolute;
  top: 0.5rem;
  right: 0.5rem;
  border: 1px solid rgba(255, 255, 255, 0.2);
  border-radius: 6px;
  background: rgba(255, 255, 255, 0.08);
  color: #adbac7;
  font-size: 0.75rem;
  padding: 0.2rem 0.6rem;
  cursor: pointer;
}

.code-block__copy-button:hover { background: rgba(255, 255, 255, 0.16); }
.code-block__copy-button--copied { color: #57ab5a; border-color: #57ab5a; }
.code-block__copy-button--error { color: #e5534b; border-color: #e5534b; }
`
